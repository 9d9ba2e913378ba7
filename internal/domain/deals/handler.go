package deals

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"commontrust-web/internal/domain/reviews"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/deals/{dealID}", getDealHandler(svc))
}

// DealResponse representa un deal devuelto por la API.
type DealResponse struct {
	ID           string                 `json:"id"`
	Description  string                 `json:"description,omitempty"`
	Status       Status                 `json:"status"`
	Created      time.Time              `json:"created"`
	Initiator    *reviews.PartyResponse `json:"initiator,omitempty"`
	Counterparty *reviews.PartyResponse `json:"counterparty,omitempty"`
}

// dealPageResponse es la página pública del deal.
type dealPageResponse struct {
	Deal DealResponse `json:"deal"`
	// Disclosed false: aún falta la review de una de las partes; Reviews va vacío.
	Disclosed bool                     `json:"disclosed"`
	Reviews   []reviews.ReviewResponse `json:"reviews"`
}

// getDealHandler godoc
// @Summary Página pública de un deal
// @Description Devuelve el deal y sus reviews. Las reviews solo se incluyen cuando ambas partes calificaron (disclosed=true).
// @Tags deals
// @Produce json
// @Param dealID path string true "ID del deal"
// @Success 200 {object} dealPageResponse
// @Failure 404 {string} string "deal not found"
// @Failure 503 {string} string "record store unavailable"
// @Router /deals/{dealID} [get]
func getDealHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Page(r.Context(), chi.URLParam(r, "dealID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
				http.Error(w, "deal not found", http.StatusNotFound)
			default:
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
			}
			return
		}

		writeJSON(w, http.StatusOK, dealPageResponse{
			Deal:      ToResponse(v.Deal),
			Disclosed: v.Disclosed,
			Reviews:   reviews.ToResponses(v.Reviews),
		})
	}
}

func ToResponse(d Deal) DealResponse {
	return DealResponse{
		ID:           d.ID,
		Description:  d.Description,
		Status:       d.Status,
		Created:      d.Created,
		Initiator:    reviews.ToParty(d.Initiator),
		Counterparty: reviews.ToParty(d.Counterparty),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
