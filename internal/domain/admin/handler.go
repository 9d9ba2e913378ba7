package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commontrust-web/internal/capability"
	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/middleware"
	"commontrust-web/internal/platform/logger"
	"commontrust-web/internal/ports/records"

	"github.com/go-chi/chi/v5"
)

// SessionIssuer emite la cookie de sesión (capability.Sessions).
type SessionIssuer interface {
	Configured() bool
	Mint() (string, error)
	TTL() time.Duration
}

// ResponseLinkMinter emite tokens de respuesta (capability.Responses).
type ResponseLinkMinter interface {
	Issue(reviewID string, revieweeTID int64, ttl time.Duration) (string, capability.ResponseClaims, error)
}

type Deps struct {
	Sessions      SessionIssuer
	Responses     ResponseLinkMinter
	Passwords     *PasswordChecker
	Members       *members.Service
	Deals         *deals.Service
	Reviews       *reviews.Service
	PublicBaseURL string
	Log           logger.Logger
}

// RegisterRoutes monta login/logout y las rutas admin. El gate (middleware.RequireAdmin)
// se aplica en el router, antes de llegar acá.
func RegisterRoutes(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	log := d.Log.With(map[string]any{"component": "admin"})

	r.Get(middleware.AdminLoginPath, loginPageHandler(d))
	r.Get("/admin", dashboardHandler(d))

	r.Route("/api/admin", func(ar chi.Router) {
		ar.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, middleware.AdminLoginPath, http.StatusSeeOther)
		})
		ar.Post("/login", loginHandler(d, log))
		ar.Post("/logout", logoutHandler(log))

		ar.Get("/deals", listDealsHandler(d))
		ar.Patch("/deals/{dealID}", updateDealHandler(d, log))
		ar.Delete("/deals/{dealID}", deleteDealHandler(d, log))

		ar.Delete("/reviews/{reviewID}", deleteReviewHandler(d, log))
		ar.Post("/reviews/{reviewID}/response-link", responseLinkHandler(d, log))

		ar.Get("/members", searchMemberHandler(d))
		ar.Post("/members/{memberID}/verified", setVerifiedHandler(d, log))
		ar.Post("/members/{memberID}/scammer", setScammerHandler(d, log))
	})
}

type loginPageResponse struct {
	Next       string `json:"next"`
	Error      string `json:"error,omitempty"`
	Configured bool   `json:"configured"`
	Action     string `json:"action"`
}

type dashboardResponse struct {
	Members int       `json:"members"`
	Deals   int       `json:"deals"`
	Reviews int       `json:"reviews"`
	Session time.Time `json:"session_expires_at"`
}

type updateDealRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

type responseLinkResponse struct {
	ReviewID  string    `json:"review_id"`
	Token     string    `json:"token"`
	Preview   string    `json:"preview"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type memberResponse struct {
	ID          string     `json:"id"`
	TelegramID  int64      `json:"telegram_id,omitempty"`
	Username    string     `json:"username,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Verified    bool       `json:"verified"`
	Scammer     bool       `json:"scammer"`
	ScammerAt   *time.Time `json:"scammer_at,omitempty"`
	Href        string     `json:"href"`
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

type setScammerRequest struct {
	Scammer bool `json:"scammer"`
}

// loginPageHandler godoc
// @Summary Descriptor del login admin
// @Description Devuelve el next sanitizado y el código de error del intento anterior.
// @Tags admin
// @Produce json
// @Param next query string false "Ruta a la que volver tras el login"
// @Param err query string false "Código de error"
// @Success 200 {object} loginPageResponse
// @Router /admin/login [get]
func loginPageHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loginPageResponse{
			Next:       SafeNext(r.URL.Query().Get("next")),
			Error:      r.URL.Query().Get("err"),
			Configured: d.Passwords.Configured() && d.Sessions != nil && d.Sessions.Configured(),
			Action:     middleware.AdminLoginAPIPath,
		})
	}
}

// loginHandler godoc
// @Summary Login admin
// @Description Valida la contraseña y emite la cookie de sesión ct_admin. Siempre responde 303.
// @Tags admin
// @Accept x-www-form-urlencoded
// @Param password formData string true "Contraseña admin"
// @Param next formData string false "Ruta de retorno (debe empezar con /)"
// @Success 303 {string} string "redirect a next, o al login con err"
// @Router /api/admin/login [post]
func loginHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		next := SafeNext(r.PostForm.Get("next"))

		if d.Sessions == nil || !d.Sessions.Configured() || !d.Passwords.Configured() {
			log.Error("admin login attempted without configuration", nil)
			loginRedirect(w, r, next, middleware.ErrCodeNotConfigured)
			return
		}

		if err := d.Passwords.Check(r.PostForm.Get("password")); err != nil {
			log.Warn("admin login failed", map[string]any{"remote": r.RemoteAddr})
			loginRedirect(w, r, next, "invalid_password")
			return
		}

		tok, err := d.Sessions.Mint()
		if err != nil {
			log.Error("admin session mint failed", map[string]any{"err": err})
			loginRedirect(w, r, next, middleware.ErrCodeNotConfigured)
			return
		}

		middleware.SetAdminCookie(w, tok, d.Sessions.TTL())
		log.Info("admin login", map[string]any{"remote": r.RemoteAddr})
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// logoutHandler godoc
// @Summary Logout admin
// @Description Borra la cookie de sesión y redirige al login.
// @Tags admin
// @Success 303 {string} string "redirect a /admin/login"
// @Router /api/admin/logout [post]
func logoutHandler(log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.ClearAdminCookie(w)
		log.Info("admin logout", nil)
		http.Redirect(w, r, middleware.AdminLoginPath, http.StatusSeeOther)
	}
}

// dashboardHandler godoc
// @Summary Panel admin
// @Description Totales de members, deals y reviews.
// @Tags admin
// @Produce json
// @Success 200 {object} dashboardResponse
// @Failure 503 {string} string "record store unavailable"
// @Router /admin [get]
func dashboardHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var (
			out dashboardResponse
			err error
		)
		if out.Members, err = d.Members.Count(ctx); err != nil {
			http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			return
		}
		if out.Deals, err = d.Deals.Count(ctx); err != nil {
			http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			return
		}
		if out.Reviews, err = d.Reviews.Count(ctx); err != nil {
			http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			return
		}
		if c, ok := middleware.GetClaims(ctx); ok {
			out.Session = c.ExpiresAt.UTC()
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listDealsHandler godoc
// @Summary Listar deals (admin)
// @Tags admin
// @Produce json
// @Param status query string false "Filtrar por estado"
// @Param q query string false "Username o Telegram ID de una de las partes"
// @Param page query int false "Página (desde 1)"
// @Param per_page query int false "Tamaño de página"
// @Success 200 {array} deals.DealResponse
// @Failure 400 {string} string "invalid input"
// @Router /api/admin/deals [get]
func listDealsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := deals.Filter{Status: deals.Status(q.Get("status"))}

		// PocketBase no filtra por campos de la relación: resolver el member primero.
		if handle := strings.TrimSpace(q.Get("q")); handle != "" {
			m, err := d.Members.Search(r.Context(), handle)
			if err != nil {
				if errors.Is(err, records.ErrNotFound) || errors.Is(err, members.ErrInvalidInput) {
					writeJSON(w, http.StatusOK, []deals.DealResponse{})
					return
				}
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
				return
			}
			f.MemberID = m.ID
		}

		items, err := d.Deals.List(r.Context(), f, reviews.PageFromQuery(q))
		if err != nil {
			writeDealError(w, err)
			return
		}
		out := make([]deals.DealResponse, 0, len(items))
		for _, it := range items {
			out = append(out, deals.ToResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// updateDealHandler godoc
// @Summary Editar deal
// @Tags admin
// @Accept json
// @Produce json
// @Param dealID path string true "ID del deal"
// @Param payload body updateDealRequest true "Campos a cambiar"
// @Success 200 {object} deals.DealResponse
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "deal not found"
// @Router /api/admin/deals/{dealID} [patch]
func updateDealHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateDealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p := deals.Patch{Description: req.Description}
		if req.Status != nil {
			st := deals.Status(*req.Status)
			p.Status = &st
		}

		id := chi.URLParam(r, "dealID")
		deal, err := d.Deals.Update(r.Context(), id, p)
		if err != nil {
			writeDealError(w, err)
			return
		}
		log.Info("deal updated", map[string]any{"deal_id": id})
		writeJSON(w, http.StatusOK, deals.ToResponse(deal))
	}
}

// deleteDealHandler godoc
// @Summary Borrar deal
// @Tags admin
// @Param dealID path string true "ID del deal"
// @Success 204
// @Failure 404 {string} string "deal not found"
// @Router /api/admin/deals/{dealID} [delete]
func deleteDealHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "dealID")
		if err := d.Deals.Delete(r.Context(), id); err != nil {
			writeDealError(w, err)
			return
		}
		log.Info("deal deleted", map[string]any{"deal_id": id})
		w.WriteHeader(http.StatusNoContent)
	}
}

// deleteReviewHandler godoc
// @Summary Borrar review
// @Tags admin
// @Param reviewID path string true "ID de la review"
// @Success 204
// @Failure 404 {string} string "review not found"
// @Router /api/admin/reviews/{reviewID} [delete]
func deleteReviewHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "reviewID")
		if err := d.Reviews.Delete(r.Context(), id); err != nil {
			writeReviewError(w, err)
			return
		}
		log.Info("review deleted", map[string]any{"review_id": id})
		w.WriteHeader(http.StatusNoContent)
	}
}

// responseLinkHandler godoc
// @Summary Emitir link de respuesta
// @Description Emite un token de respuesta ligado al reviewee actual de la review y devuelve el link público.
// @Tags admin
// @Produce json
// @Param reviewID path string true "ID de la review"
// @Success 200 {object} responseLinkResponse
// @Failure 404 {string} string "review not found"
// @Failure 409 {string} string "already responded / reviewee without telegram id"
// @Failure 503 {string} string "not configured"
// @Router /api/admin/reviews/{reviewID}/response-link [post]
func responseLinkHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rv, err := d.Reviews.GetByID(r.Context(), chi.URLParam(r, "reviewID"))
		if err != nil {
			writeReviewError(w, err)
			return
		}
		if rv.HasResponse() {
			http.Error(w, "already responded", http.StatusConflict)
			return
		}
		tid := rv.RevieweeTelegramID()
		if tid <= 0 {
			http.Error(w, "reviewee without telegram id", http.StatusConflict)
			return
		}

		tok, claims, err := d.Responses.Issue(rv.ID, tid, 0)
		if err != nil {
			if errors.Is(err, capability.ErrNotConfigured) {
				http.Error(w, "not configured", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		link := strings.TrimRight(d.PublicBaseURL, "/") + "/respond/" + url.PathEscape(tok)
		log.Info("response link minted", map[string]any{
			"review_id": rv.ID,
			"token":     capability.Preview(tok),
		})

		writeJSON(w, http.StatusOK, responseLinkResponse{
			ReviewID:  rv.ID,
			Token:     tok,
			Preview:   capability.Preview(tok),
			URL:       link,
			ExpiresAt: claims.ExpiresAt().UTC(),
		})
	}
}

// searchMemberHandler godoc
// @Summary Buscar member
// @Tags admin
// @Produce json
// @Param q query string true "Username o Telegram ID"
// @Success 200 {object} memberResponse
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "member not found"
// @Router /api/admin/members [get]
func searchMemberHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := d.Members.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeMemberError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

// setVerifiedHandler godoc
// @Summary Marcar member verificado
// @Tags admin
// @Accept json
// @Produce json
// @Param memberID path string true "ID del member"
// @Param payload body setVerifiedRequest true "Nuevo estado"
// @Success 200 {object} memberResponse
// @Failure 404 {string} string "member not found"
// @Router /api/admin/members/{memberID}/verified [post]
func setVerifiedHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setVerifiedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		id := chi.URLParam(r, "memberID")
		m, err := d.Members.SetVerified(r.Context(), id, req.Verified)
		if err != nil {
			writeMemberError(w, err)
			return
		}
		log.Info("member verified flag changed", map[string]any{"member_id": id, "verified": req.Verified})
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

// setScammerHandler godoc
// @Summary Marcar/desmarcar scammer
// @Description Al marcar guarda scammer_at; al desmarcar lo limpia.
// @Tags admin
// @Accept json
// @Produce json
// @Param memberID path string true "ID del member"
// @Param payload body setScammerRequest true "Nuevo estado"
// @Success 200 {object} memberResponse
// @Failure 404 {string} string "member not found"
// @Router /api/admin/members/{memberID}/scammer [post]
func setScammerHandler(d Deps, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setScammerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		id := chi.URLParam(r, "memberID")
		m, err := d.Members.FlagScammer(r.Context(), id, req.Scammer)
		if err != nil {
			writeMemberError(w, err)
			return
		}
		log.Info("member scammer flag changed", map[string]any{"member_id": id, "scammer": req.Scammer})
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

// SafeNext deja pasar solo rutas locales. "//host" y "/\host" se tratan como externas.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin"
	}
	return next
}

func loginRedirect(w http.ResponseWriter, r *http.Request, next, code string) {
	q := url.Values{}
	q.Set("next", next)
	q.Set("err", code)
	http.Redirect(w, r, middleware.AdminLoginPath+"?"+q.Encode(), http.StatusSeeOther)
}

func toMemberResponse(m members.Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		TelegramID:  m.TelegramID,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		Verified:    m.Verified,
		Scammer:     m.Scammer,
		ScammerAt:   m.ScammerAt,
		Href:        members.Href(&m),
	}
}

func writeDealError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deals.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, deals.ErrNotFound):
		http.Error(w, "deal not found", http.StatusNotFound)
	default:
		http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
	}
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviews.ErrInvalidInput), errors.Is(err, reviews.ErrNotFound):
		http.Error(w, "review not found", http.StatusNotFound)
	default:
		http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
	}
}

func writeMemberError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, members.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, records.ErrNotFound):
		http.Error(w, "member not found", http.StatusNotFound)
	default:
		http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
