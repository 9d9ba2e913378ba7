package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"
)

var reviewSelect = `
	SELECT r.id, r.deal_id, r.reviewer_id, r.reviewee_id, r.reviewer_username, r.reviewee_username,
		r.rating, r.comment, r.outcome, r.response, r.response_at, r.created,
		` + joinedMemberColumns("rv") + `,
		` + joinedMemberColumns("re") + `
	FROM reviews r
	LEFT JOIN members rv ON rv.id = r.reviewer_id
	LEFT JOIN members re ON re.id = r.reviewee_id`

const reviewOrder = ` ORDER BY r.created DESC, r.id DESC`

type ReviewsRepo struct {
	db *sql.DB
}

func NewReviewsRepo(db *sql.DB) *ReviewsRepo {
	return &ReviewsRepo{db: db}
}

func (r *ReviewsRepo) GetByID(ctx context.Context, id string) (reviews.Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return reviews.Review{}, records.ErrNotFound
	}
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return reviews.Review{}, storeErr(err)
	}
	return rv, nil
}

func (r *ReviewsRepo) ListByDeal(ctx context.Context, dealID string) ([]reviews.Review, error) {
	return r.query(ctx, reviewSelect+` WHERE r.deal_id = $1`+reviewOrder, dealID)
}

func (r *ReviewsRepo) ListByDeals(ctx context.Context, dealIDs []string) ([]reviews.Review, error) {
	if len(dealIDs) == 0 {
		return []reviews.Review{}, nil
	}
	return r.query(ctx, reviewSelect+` WHERE r.deal_id = ANY($1)`+reviewOrder, dealIDs)
}

func (r *ReviewsRepo) ListAboutMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return r.paged(ctx, ` WHERE r.reviewee_id = $1`, page, memberID)
}

func (r *ReviewsRepo) ListAboutUsername(ctx context.Context, username string, page records.Page) ([]reviews.Review, error) {
	return r.paged(ctx, ` WHERE lower(r.reviewee_username) = $1`, page, strings.ToLower(strings.TrimSpace(username)))
}

func (r *ReviewsRepo) ListInvolvingMember(ctx context.Context, memberID string, page records.Page) ([]reviews.Review, error) {
	return r.paged(ctx, ` WHERE (r.reviewer_id = $1 OR r.reviewee_id = $1)`, page, memberID)
}

func (r *ReviewsRepo) ListRecent(ctx context.Context, page records.Page) ([]reviews.Review, error) {
	return r.paged(ctx, ``, page)
}

// paged agrega orden y LIMIT/OFFSET a continuación de args.
func (r *ReviewsRepo) paged(ctx context.Context, where string, page records.Page, args ...any) ([]reviews.Review, error) {
	p := page.Normalize()
	args = append(args, p.PerPage, p.Offset())
	q := reviewSelect + where + reviewOrder +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	return r.query(ctx, q, args...)
}

func (r *ReviewsRepo) query(ctx context.Context, q string, args ...any) ([]reviews.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	out := make([]reviews.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// SetResponse solo escribe si la review no tenía respuesta.
func (r *ReviewsRepo) SetResponse(ctx context.Context, id, response string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET response = $2, response_at = $3
		WHERE id = $1 AND COALESCE(response, '') = '' AND response_at IS NULL
	`, id, response, at)
	if err != nil {
		return storeErr(err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return storeErr(err)
	}
	if !exists {
		return records.ErrNotFound
	}
	return records.ErrConflict
}

func (r *ReviewsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return storeErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *ReviewsRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM reviews`).Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

func scanReview(s scanner) (reviews.Review, error) {
	var (
		rv         reviews.Review
		response   sql.NullString
		responseAt sql.NullTime
		reviewer   nullMember
		reviewee   nullMember
	)
	dest := []any{
		&rv.ID, &rv.DealID, &rv.ReviewerID, &rv.RevieweeID, &rv.ReviewerUsername, &rv.RevieweeUsername,
		&rv.Rating, &rv.Comment, &rv.Outcome, &response, &responseAt, &rv.Created,
	}
	dest = append(dest, reviewer.dest()...)
	dest = append(dest, reviewee.dest()...)
	if err := s.Scan(dest...); err != nil {
		return reviews.Review{}, err
	}
	rv.Response = response.String
	rv.ResponseAt = fromNullTime(responseAt)
	rv.Created = rv.Created.UTC()
	rv.Reviewer = reviewer.member()
	rv.Reviewee = reviewee.member()
	return rv, nil
}
