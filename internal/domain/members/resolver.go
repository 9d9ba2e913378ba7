package members

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"commontrust-web/internal/ports/records"
)

type HandleKind int

const (
	HandleInvalid HandleKind = iota
	HandleNumeric
	HandleUsername
)

func (k HandleKind) String() string {
	switch k {
	case HandleNumeric:
		return "numeric"
	case HandleUsername:
		return "username"
	default:
		return "invalid"
	}
}

var (
	numericHandle  = regexp.MustCompile(`^[0-9]{4,20}$`)
	usernameHandle = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{4,31}$`)
)

// NormalizeHandle quita espacios y un "@" inicial.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

func Classify(handle string) HandleKind {
	h := NormalizeHandle(handle)
	switch {
	case numericHandle.MatchString(h):
		return HandleNumeric
	case usernameHandle.MatchString(h):
		return HandleUsername
	default:
		return HandleInvalid
	}
}

func IsUsername(s string) bool {
	return usernameHandle.MatchString(s)
}

// Lookup es el subconjunto del repositorio que necesita el resolver.
type Lookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (Member, error)
	GetByUsername(ctx context.Context, username string) (Member, error)
}

// Resolution es el resultado de resolver un handle público.
//   - Member != nil: perfil encontrado.
//   - RedirectTo != "": el caller debe redirigir a la ruta canónica (solo si entró por username).
//   - FallbackUsername != "": no hay member, pero el handle es un username válido;
//     se pueden listar reviews por el username denormalizado (sin canonicalizar).
type Resolution struct {
	Handle           string
	Kind             HandleKind
	Member           *Member
	RedirectTo       string
	FallbackUsername string
}

func (r Resolution) Found() bool { return r.Member != nil }

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve corre exactamente uno de los dos lookups según la forma del handle.
// Un "no encontrado" no es error; un fallo del store sí.
func (r *Resolver) Resolve(ctx context.Context, handle string) (Resolution, error) {
	h := NormalizeHandle(handle)
	res := Resolution{Handle: h, Kind: Classify(h)}

	switch res.Kind {
	case HandleNumeric:
		tid, err := strconv.ParseInt(h, 10, 64)
		if err != nil || tid <= 0 {
			// 20 dígitos puede desbordar int64: no existe tal member.
			return res, nil
		}
		m, err := r.lookup.GetByTelegramID(ctx, tid)
		if err != nil {
			if errors.Is(err, records.ErrNotFound) {
				return res, nil
			}
			return res, err
		}
		res.Member = &m
		return res, nil

	case HandleUsername:
		u := strings.ToLower(h)
		m, err := r.lookup.GetByUsername(ctx, u)
		if err != nil {
			if errors.Is(err, records.ErrNotFound) {
				res.FallbackUsername = u
				return res, nil
			}
			return res, err
		}
		res.Member = &m
		if m.TelegramID > 0 {
			res.RedirectTo = ProfilePath(m.TelegramID)
		}
		return res, nil

	default:
		return res, nil
	}
}
