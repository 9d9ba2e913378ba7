package profiles

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/user/{handle}", getProfileHandler(svc))
}

type memberResponse struct {
	ID          string     `json:"id"`
	TelegramID  int64      `json:"telegram_id,omitempty"`
	Username    string     `json:"username,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Label       string     `json:"label"`
	Verified    bool       `json:"verified"`
	Scammer     bool       `json:"scammer"`
	ScammerAt   *time.Time `json:"scammer_at,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
}

type starsResponse struct {
	On    int    `json:"on"`
	Off   int    `json:"off"`
	Glyph string `json:"glyph"`
}

// profileResponse representa la página pública de un member.
type profileResponse struct {
	// Member ausente: perfil armado solo por username.
	Member    *memberResponse `json:"member,omitempty"`
	Username  string          `json:"username,omitempty"`
	Usernames []string        `json:"usernames"`

	// AvgRating nulo = sin rating.
	AvgRating        *float64                 `json:"avg_rating"`
	AvgRatingDisplay string                   `json:"avg_rating_display"`
	Stars            starsResponse            `json:"stars"`
	ReviewCount      int                      `json:"review_count"`
	Reviews          []reviews.ReviewResponse `json:"reviews"`
}

// getProfileHandler godoc
// @Summary Perfil público
// @Description Resuelve un handle (Telegram ID numérico o username). Si entra por username y el member tiene Telegram ID, redirige (308) a /user/{telegram_id}. Si no existe member pero el username es válido, lista reviews por username denormalizado.
// @Tags profiles
// @Produce json
// @Param handle path string true "Telegram ID o username (con o sin @)"
// @Param page query int false "Página de reviews (desde 1)"
// @Param per_page query int false "Tamaño de página (1-200). Por defecto 30"
// @Success 200 {object} profileResponse
// @Success 308 {string} string "redirect a la ruta canónica"
// @Failure 404 {string} string "profile not found"
// @Failure 503 {string} string "record store unavailable"
// @Router /user/{handle} [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Load(r.Context(), chi.URLParam(r, "handle"), reviews.PageFromQuery(r.URL.Query()))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "profile not found", http.StatusNotFound)
			default:
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			}
			return
		}

		if p.RedirectTo != "" {
			http.Redirect(w, r, p.RedirectTo, http.StatusPermanentRedirect)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func toProfileResponse(p Profile) profileResponse {
	out := profileResponse{
		Username:         p.Username,
		Usernames:        p.Usernames,
		AvgRatingDisplay: reviews.FormatAverage(p.Average, p.HasRating),
		ReviewCount:      len(p.Reviews),
		Reviews:          reviews.ToResponses(p.Reviews),
	}
	if out.Usernames == nil {
		out.Usernames = []string{}
	}

	if p.HasRating {
		avg := p.Average
		out.AvgRating = &avg
	}
	on, off := reviews.Stars(p.Average)
	full, empty := reviews.StarGlyphs(p.Average)
	out.Stars = starsResponse{On: on, Off: off, Glyph: full + empty}

	if m := p.Member; m != nil {
		out.Member = &memberResponse{
			ID:          m.ID,
			TelegramID:  m.TelegramID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			Label:       members.Label(m),
			Verified:    m.Verified,
			Scammer:     m.Scammer,
			ScammerAt:   m.ScammerAt,
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
