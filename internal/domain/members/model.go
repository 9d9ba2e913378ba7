package members

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Member es un participante identificado por su Telegram ID (clave canónica y permanente).
// Username es un alias volátil: nunca usarlo como clave de links ni de agregación.
type Member struct {
	ID          string
	TelegramID  int64
	Username    string // sin "@", puede cambiar
	DisplayName string

	Verified  bool
	Scammer   bool
	ScammerAt *time.Time

	JoinedAt time.Time
}

// Label es el nombre corto para mostrar.
func Label(m *Member) string {
	if m == nil {
		return "Unknown"
	}
	if u := strings.TrimSpace(m.Username); u != "" {
		return "@" + u
	}
	if d := strings.TrimSpace(m.DisplayName); d != "" {
		return d
	}
	if m.TelegramID > 0 {
		return "ID " + strconv.FormatInt(m.TelegramID, 10)
	}
	return "Unknown"
}

// Href canonicaliza al Telegram ID cuando existe (estable ante cambios de username).
func Href(m *Member) string {
	if m == nil {
		return "/reviews"
	}
	if m.TelegramID > 0 {
		return ProfilePath(m.TelegramID)
	}
	if u := strings.TrimSpace(m.Username); u != "" {
		return "/user/" + url.PathEscape(u)
	}
	return "/reviews"
}

func ProfilePath(telegramID int64) string {
	return "/user/" + strconv.FormatInt(telegramID, 10)
}
