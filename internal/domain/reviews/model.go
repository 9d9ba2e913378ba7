package reviews

import (
	"strings"
	"time"

	"commontrust-web/internal/domain/members"
)

// Review es una calificación de un participante sobre el otro dentro de un deal.
// Response/ResponseAt se escriben una sola vez y nunca se editan.
type Review struct {
	ID     string
	DealID string

	ReviewerID string
	RevieweeID string

	// Usernames denormalizados al momento de crear la review (pueden estar desactualizados).
	ReviewerUsername string
	RevieweeUsername string

	Rating  int // 1..5
	Comment string
	Outcome string

	Response   string
	ResponseAt *time.Time

	Created time.Time

	// Expansión de relaciones; nil si el store no la trajo.
	Reviewer *members.Member
	Reviewee *members.Member
}

func (r Review) HasResponse() bool {
	return strings.TrimSpace(r.Response) != "" || r.ResponseAt != nil
}

// RevieweeTelegramID es el Telegram ID actual del reviewee (0 si se desconoce).
func (r Review) RevieweeTelegramID() int64 {
	if r.Reviewee == nil {
		return 0
	}
	return r.Reviewee.TelegramID
}

// ReviewerKey identifica al autor para agregación.
// Prefiere el id del member; cae al username denormalizado y, en último caso, a la review misma.
func (r Review) ReviewerKey() string {
	if id := strings.TrimSpace(r.ReviewerID); id != "" {
		return "id:" + id
	}
	if u := strings.TrimSpace(r.ReviewerUsername); u != "" {
		return "username:" + strings.ToLower(u)
	}
	return "review:" + r.ID
}

// ReviewerView arma un Member para mostrar aunque la expansión falte.
func (r Review) ReviewerView() *members.Member {
	return partyView(r.Reviewer, r.ReviewerUsername)
}

func (r Review) RevieweeView() *members.Member {
	return partyView(r.Reviewee, r.RevieweeUsername)
}

func partyView(m *members.Member, username string) *members.Member {
	if m != nil {
		v := *m
		if strings.TrimSpace(v.Username) == "" {
			v.Username = username
		}
		return &v
	}
	if strings.TrimSpace(username) == "" {
		return nil
	}
	return &members.Member{Username: username}
}
