package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"commontrust-web/internal/capability"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/platform/logger"
	"commontrust-web/internal/ports/records"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}

	r.Get("/reviews", listRecentHandler(svc))
	r.Get("/reviews/{reviewID}", getReviewHandler(svc))

	// Flujo del navegador (link de la notificación)
	r.Route("/respond/{token}", func(rr chi.Router) {
		rr.Get("/", respondFormHandler(svc, log))
		rr.Post("/", respondFormSubmitHandler(svc, log))
	})

	// Flujo programático
	r.Post("/api/reviews/response", submitResponseHandler(svc, log))
}

// PartyResponse es la vista pública de reviewer / reviewee.
type PartyResponse struct {
	ID         string `json:"id,omitempty"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Label      string `json:"label"`
	Href       string `json:"href"`
	Verified   bool   `json:"verified"`
	Scammer    bool   `json:"scammer"`
}

// ReviewResponse representa una review pública.
type ReviewResponse struct {
	ID         string         `json:"id"`
	DealID     string         `json:"deal_id"`
	Rating     int            `json:"rating"`
	Comment    string         `json:"comment,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
	Response   string         `json:"response,omitempty"`
	ResponseAt *time.Time     `json:"response_at,omitempty"`
	Created    time.Time      `json:"created"`
	Reviewer   *PartyResponse `json:"reviewer,omitempty"`
	Reviewee   *PartyResponse `json:"reviewee,omitempty"`
}

// respondFormResponse describe el formulario de respuesta.
type respondFormResponse struct {
	Review       ReviewResponse `json:"review"`
	Responded    bool           `json:"responded"`
	MaxLength    int            `json:"max_length"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Error        string         `json:"error,omitempty"`
	SubmitAction string         `json:"submit_action"`
}

type submitResponseRequest struct {
	Token    string `json:"token"`
	Response string `json:"response"`
}

// listRecentHandler godoc
// @Summary Reviews recientes
// @Description Lista las reviews más recientes cuyo deal ya es público (ambas partes calificaron).
// @Tags reviews
// @Produce json
// @Param page query int false "Página (desde 1)"
// @Param per_page query int false "Tamaño de página (1-200). Por defecto 30"
// @Success 200 {array} ReviewResponse
// @Failure 503 {string} string "record store unavailable"
// @Router /reviews [get]
func listRecentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.VisibleRecent(r.Context(), PageFromQuery(r.URL.Query()))
		if err != nil {
			http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, ToResponses(items))
	}
}

// getReviewHandler godoc
// @Summary Obtener review
// @Description Devuelve una review solo si su deal es público; si no, 404.
// @Tags reviews
// @Produce json
// @Param reviewID path string true "ID de la review"
// @Success 200 {object} ReviewResponse
// @Failure 404 {string} string "review not found"
// @Failure 503 {string} string "record store unavailable"
// @Router /reviews/{reviewID} [get]
func getReviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rv, err := svc.GetVisible(r.Context(), chi.URLParam(r, "reviewID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
				http.Error(w, "review not found", http.StatusNotFound)
			default:
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			}
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(rv))
	}
}

// respondFormHandler godoc
// @Summary Formulario de respuesta
// @Description Valida el token de respuesta y que el reviewee actual coincida. Cualquier fallo del token es 404.
// @Tags reviews
// @Produce json
// @Param token path string true "Token de respuesta"
// @Param err query string false "Código de error del intento anterior"
// @Success 200 {object} respondFormResponse
// @Failure 404 {string} string "not found"
// @Router /respond/{token} [get]
func respondFormHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		rv, claims, err := svc.PrepareResponse(r.Context(), token)
		if err != nil {
			logTokenFailure(log, "respond form rejected", token, err)
			if errors.Is(err, ErrStoreUnavailable) {
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, respondFormResponse{
			Review:       ToResponse(rv),
			Responded:    rv.HasResponse(),
			MaxLength:    svc.MaxResponseLen(),
			ExpiresAt:    claims.ExpiresAt().UTC(),
			Error:        r.URL.Query().Get("err"),
			SubmitAction: "/respond/" + url.PathEscape(token),
		})
	}
}

// respondFormSubmitHandler godoc
// @Summary Enviar respuesta (formulario)
// @Description Registra la respuesta del reviewee. Éxito: 303 a /reviews/{id}. Rechazo: 303 de vuelta al formulario con err.
// @Tags reviews
// @Accept x-www-form-urlencoded
// @Param token path string true "Token de respuesta"
// @Param response formData string true "Texto de la respuesta"
// @Success 303 {string} string "redirect"
// @Router /respond/{token} [post]
func respondFormSubmitHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		back := "/respond/" + url.PathEscape(token)

		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, back+"?err=invalid_input", http.StatusSeeOther)
			return
		}

		rv, err := svc.SubmitResponse(r.Context(), token, r.PostForm.Get("response"))
		if err != nil {
			logTokenFailure(log, "response rejected", token, err)
			http.Redirect(w, r, back+"?err="+ErrorCode(err), http.StatusSeeOther)
			return
		}

		log.Info("review response recorded", map[string]any{"review_id": rv.ID})
		http.Redirect(w, r, "/reviews/"+url.PathEscape(rv.ID), http.StatusSeeOther)
	}
}

// submitResponseHandler godoc
// @Summary Enviar respuesta (API)
// @Description Registra la respuesta única del reviewee a una review usando el token de respuesta.
// @Tags reviews
// @Accept json
// @Produce json
// @Param payload body submitResponseRequest true "Token y texto"
// @Success 200 {object} ReviewResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "invalid_token / expired / not_configured / identity_mismatch"
// @Failure 404 {string} string "review not found"
// @Failure 409 {string} string "already responded"
// @Failure 503 {string} string "record store unavailable"
// @Router /api/reviews/response [post]
func submitResponseHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitResponseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rv, err := svc.SubmitResponse(r.Context(), req.Token, req.Response)
		if err != nil {
			logTokenFailure(log, "response rejected", req.Token, err)
			http.Error(w, ErrorCode(err), StatusFor(err))
			return
		}

		log.Info("review response recorded", map[string]any{"review_id": rv.ID})
		writeJSON(w, http.StatusOK, ToResponse(rv))
	}
}

// ErrorCode es el código visible para el usuario. Firma inválida y token malformado comparten código.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, capability.ErrNotConfigured),
		errors.Is(err, capability.ErrExpired),
		errors.Is(err, capability.ErrMalformed),
		errors.Is(err, capability.ErrBadSignature),
		errors.Is(err, capability.ErrNotYetValid),
		errors.Is(err, capability.ErrInvalidClaims):
		return capability.Reason(err)
	case errors.Is(err, ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ErrAlreadyResponded):
		return "already_responded"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unavailable"
	}
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyResponded):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, capability.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		// token inválido / expirado / reviewee distinto
		return http.StatusUnauthorized
	}
}

// logTokenFailure distingue firma inválida de token malformado solo en logs; nunca loguea el token completo.
func logTokenFailure(log logger.Logger, msg, token string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, capability.ErrBadSignature):
		kind = "bad_signature"
	case errors.Is(err, capability.ErrMalformed):
		kind = "malformed"
	case errors.Is(err, capability.ErrExpired):
		kind = "expired"
	case errors.Is(err, capability.ErrNotYetValid):
		kind = "not_yet_valid"
	case errors.Is(err, capability.ErrNotConfigured):
		kind = "not_configured"
	}
	log.Warn(msg, map[string]any{
		"token": capability.Preview(token),
		"kind":  kind,
		"err":   err,
	})
}

// PageFromQuery lee page / per_page.
func PageFromQuery(q url.Values) records.Page {
	p := records.Page{}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		p.PerPage = v
	}
	return p.Normalize()
}

func ToResponse(rv Review) ReviewResponse {
	return ReviewResponse{
		ID:         rv.ID,
		DealID:     rv.DealID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		Outcome:    rv.Outcome,
		Response:   rv.Response,
		ResponseAt: rv.ResponseAt,
		Created:    rv.Created,
		Reviewer:   ToParty(rv.ReviewerView()),
		Reviewee:   ToParty(rv.RevieweeView()),
	}
}

func ToResponses(items []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ToResponse(it))
	}
	return out
}

func ToParty(m *members.Member) *PartyResponse {
	if m == nil {
		return nil
	}
	return &PartyResponse{
		ID:         m.ID,
		TelegramID: m.TelegramID,
		Username:   m.Username,
		Label:      members.Label(m),
		Href:       members.Href(m),
		Verified:   m.Verified,
		Scammer:    m.Scammer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
