package pocketbase

import (
	"context"
	"strings"
	"time"

	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"
)

const (
	reviewExpand = "reviewer_id,reviewee_id"
	reviewSort   = "-created"

	// dealChunk limita cuántos deal_id van en un mismo filter (largo de URL).
	dealChunk = 40
)

type reviewRecord struct {
	ID               string `json:"id"`
	DealID           string `json:"deal_id"`
	ReviewerID       string `json:"reviewer_id"`
	RevieweeID       string `json:"reviewee_id"`
	ReviewerUsername string `json:"reviewer_username"`
	RevieweeUsername string `json:"reviewee_username"`
	Rating           int    `json:"rating"`
	Comment          string `json:"comment"`
	Outcome          string `json:"outcome"`
	Response         string `json:"response"`
	ResponseAt       pbTime `json:"response_at"`
	Created          pbTime `json:"created"`
	Expand           struct {
		Reviewer *memberRecord `json:"reviewer_id"`
		Reviewee *memberRecord `json:"reviewee_id"`
	} `json:"expand"`
}

func (r reviewRecord) toDomain() reviews.Review {
	return reviews.Review{
		ID:               r.ID,
		DealID:           r.DealID,
		ReviewerID:       r.ReviewerID,
		RevieweeID:       r.RevieweeID,
		ReviewerUsername: r.ReviewerUsername,
		RevieweeUsername: r.RevieweeUsername,
		Rating:           r.Rating,
		Comment:          r.Comment,
		Outcome:          r.Outcome,
		Response:         r.Response,
		ResponseAt:       r.ResponseAt.ptr(),
		Created:          r.Created.Time,
		Reviewer:         memberPtr(r.Expand.Reviewer),
		Reviewee:         memberPtr(r.Expand.Reviewee),
	}
}

type ReviewsRepo struct {
	c *Client
}

func NewReviewsRepo(c *Client) *ReviewsRepo {
	return &ReviewsRepo{c: c}
}

func (r *ReviewsRepo) GetByID(ctx context.Context, id string) (reviews.Review, error) {
	var rec reviewRecord
	if err := r.c.get(ctx, colReviews, id, reviewExpand, &rec); err != nil {
		return reviews.Review{}, err
	}
	return rec.toDomain(), nil
}

func (r *ReviewsRepo) listPage(ctx context.Context, filter string, page records.Page) ([]reviews.Review, error) {
	res, err := r.c.list(ctx, colReviews, listQuery{
		Page:   page,
		Sort:   reviewSort,
		Filter: filter,
		Expand: reviewExpand,
	})
	if err != nil {
		return nil, err
	}
	recs, err := decodeItems[reviewRecord](colReviews, res.Items)
	if err != nil {
		return nil, err
	}
	out := make([]reviews.Review, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// listAll recorre todas las páginas del filter.
func (r *ReviewsRepo) listAll(ctx context.Context, filter string) ([]reviews.Review, error) {
	out := make([]reviews.Review, 0)
	for page := 1; ; page++ {
		items, err := r.listPage(ctx, filter, records.Page{Page: page, PerPage: records.MaxPerPage})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < records.MaxPerPage {
			return out, nil
		}
	}
}

func (r *ReviewsRepo) ListByDeal(ctx context.Context, dealID string) ([]reviews.Review, error) {
	if strings.TrimSpace(dealID) == "" {
		return []reviews.Review{}, nil
	}
	return r.listAll(ctx, eq("deal_id", dealID))
}

func (r *ReviewsRepo) ListByDeals(ctx context.Context, dealIDs []string) ([]reviews.Review, error) {
	out := make([]reviews.Review, 0)
	for start := 0; start < len(dealIDs); start += dealChunk {
		end := min(start+dealChunk, len(dealIDs))
		clauses := make([]string, 0, end-start)
		for _, id := range dealIDs[start:end] {
			clauses = append(clauses, eq("deal_id", id))
		}
		items, err := r.listAll(ctx, anyOf(clauses...))
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (r *ReviewsRepo) ListAboutMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return r.listPage(ctx, eq("reviewee_id", memberID), page)
}

func (r *ReviewsRepo) ListAboutUsername(ctx context.Context, username string, page records.Page) ([]reviews.Review, error) {
	return r.listPage(ctx, eq("reviewee_username:lower", strings.ToLower(strings.TrimSpace(username))), page)
}

func (r *ReviewsRepo) ListInvolvingMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return r.listPage(ctx, anyOf(eq("reviewer_id", memberID), eq("reviewee_id", memberID)), page)
}

func (r *ReviewsRepo) ListRecent(ctx context.Context, page records.Page) ([]reviews.Review, error) {
	return r.listPage(ctx, "", page)
}

// SetResponse relee antes de escribir. La REST API no tiene update condicional,
// así que queda una ventana entre la lectura y el PATCH.
func (r *ReviewsRepo) SetResponse(ctx context.Context, id, response string, at time.Time) error {
	var rec reviewRecord
	if err := r.c.get(ctx, colReviews, id, "", &rec); err != nil {
		return err
	}
	if rec.toDomain().HasResponse() {
		return records.ErrConflict
	}
	return r.c.patch(ctx, colReviews, id, map[string]any{
		"response":    response,
		"response_at": formatTime(at),
	})
}

func (r *ReviewsRepo) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, colReviews, id)
}

func (r *ReviewsRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, colReviews)
}
