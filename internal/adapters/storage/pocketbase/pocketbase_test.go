package pocketbase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/ports/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePB sirve respuestas fijas y registra los requests.
type fakePB struct {
	t        *testing.T
	requests []*http.Request
	bodies   []string
	handle   func(w http.ResponseWriter, r *http.Request)
}

func newFake(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*fakePB, *Client) {
	t.Helper()
	f := &fakePB{t: t, handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.requests = append(f.requests, r)
		f.bodies = append(f.bodies, string(b))
		f.handle(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "pb-token", time.Second)
	require.NoError(t, err)
	return f, c
}

func writeList(w http.ResponseWriter, total int, items ...string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"page":1,"perPage":30,"totalItems":`+itoa(total)+`,"totalPages":1,"items":[`+strings.Join(items, ",")+`]}`)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

const reviewJSON = `{
	"id":"rev_1","deal_id":"deal_1","reviewer_id":"m_a","reviewee_id":"m_b",
	"reviewee_username":"bob","rating":5,"comment":"ok",
	"response":"","response_at":"","created":"2025-12-20 10:00:00.123Z",
	"expand":{"reviewee_id":{"id":"m_b","telegram_id":42,"username":"Bob"}}
}`

func TestEscapeFilter(t *testing.T) {
	assert.Equal(t, `o\'brien`, EscapeFilter(`o'brien`))
	assert.Equal(t, `a\\b`, EscapeFilter(`a\b`))
	assert.Equal(t, `x\\\'`, EscapeFilter(`x\'`))
	assert.Equal(t, `username='o\'brien'`, eq("username", "o'brien"))
}

func TestReviews_GetByIDDecodesExpand(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, reviewJSON)
	})

	rv, err := NewReviewsRepo(c).GetByID(context.Background(), "rev_1")
	require.NoError(t, err)

	req := f.requests[0]
	assert.Equal(t, "/api/collections/reviews/records/rev_1", req.URL.Path)
	assert.Equal(t, reviewExpand, req.URL.Query().Get("expand"))
	assert.Equal(t, "Bearer pb-token", req.Header.Get("Authorization"))

	assert.Equal(t, 5, rv.Rating)
	assert.Nil(t, rv.ResponseAt)
	assert.Nil(t, rv.Reviewer)
	require.NotNil(t, rv.Reviewee)
	assert.Equal(t, int64(42), rv.RevieweeTelegramID())
	assert.Equal(t, time.Date(2025, 12, 20, 10, 0, 0, 123e6, time.UTC), rv.Created)
}

func TestErrors_MapToRecords(t *testing.T) {
	status := http.StatusNotFound
	_, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"x"}`, status)
	})
	repo := NewReviewsRepo(c)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, records.ErrNotFound)

	status = http.StatusBadGateway
	_, err = repo.GetByID(context.Background(), "rev_1")
	assert.ErrorIs(t, err, records.ErrUnavailable)

	_, err = repo.GetByID(context.Background(), " ")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestReviews_ListByDealsBuildsFilter(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, 1, reviewJSON)
	})

	items, err := NewReviewsRepo(c).ListByDeals(context.Background(), []string{"d1", "d'2"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	q := f.requests[0].URL.Query()
	assert.Equal(t, `(deal_id='d1' || deal_id='d\'2')`, q.Get("filter"))
	assert.Equal(t, "-created", q.Get("sort"))
	assert.Equal(t, "200", q.Get("perPage"))

	items, err = NewReviewsRepo(c).ListByDeals(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, f.requests, 1)
}

func TestReviews_SetResponse(t *testing.T) {
	responded := false
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if responded {
				_, _ = io.WriteString(w, `{"id":"rev_1","response":"done","response_at":"2025-12-21 00:00:00.000Z"}`)
				return
			}
			_, _ = io.WriteString(w, reviewJSON)
		case http.MethodPatch:
			_, _ = io.WriteString(w, `{}`)
		}
	})
	repo := NewReviewsRepo(c)
	at := time.Date(2025, 12, 22, 9, 30, 0, 0, time.UTC)

	require.NoError(t, repo.SetResponse(context.Background(), "rev_1", "thanks", at))
	require.Len(t, f.requests, 2)
	assert.Equal(t, http.MethodPatch, f.requests[1].Method)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies[1]), &body))
	assert.Equal(t, "thanks", body["response"])
	assert.Equal(t, "2025-12-22 09:30:00.000Z", body["response_at"])

	responded = true
	err := repo.SetResponse(context.Background(), "rev_1", "again", at)
	assert.ErrorIs(t, err, records.ErrConflict)
	assert.Len(t, f.requests, 3)
}

func TestMembers_Lookups(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("filter"), "nobody") {
			writeList(w, 0)
			return
		}
		writeList(w, 1, `{"id":"m_b","telegram_id":42,"username":"@Bob","created":"2025-01-01 00:00:00.000Z"}`)
	})
	repo := NewMembersRepo(c)
	ctx := context.Background()

	m, err := repo.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Bob", m.Username)
	assert.Equal(t, 2025, m.JoinedAt.Year())
	assert.Equal(t, "telegram_id=42", f.requests[0].URL.Query().Get("filter"))

	_, err = repo.GetByUsername(ctx, "BOB")
	require.NoError(t, err)
	assert.Equal(t, "username:lower='bob'", f.requests[1].URL.Query().Get("filter"))

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, records.ErrNotFound)

	_, err = repo.GetByTelegramID(ctx, 0)
	assert.ErrorIs(t, err, records.ErrNotFound)
	assert.Len(t, f.requests, 3)
}

func TestMembers_SetScammerClearsTimestamp(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	require.NoError(t, NewMembersRepo(c).SetScammer(context.Background(), "m_b", false, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies[0]), &body))
	assert.Equal(t, false, body["scammer"])
	assert.Equal(t, "", body["scammer_at"])
}

func TestDeals_ListAndCount(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, 7, `{"id":"d1","status":"completed","initiator_id":"m_a","counterparty_id":"m_b",
			"created":"2025-12-01 00:00:00.000Z","expand":{"initiator_id":{"id":"m_a","username":"alice"}}}`)
	})
	repo := NewDealsRepo(c)
	ctx := context.Background()

	items, err := repo.List(ctx, deals.Filter{Status: deals.StatusCompleted, MemberID: "m_a"}, records.Page{Page: 2, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Initiator.Username)
	assert.Nil(t, items[0].Counterparty)

	q := f.requests[0].URL.Query()
	assert.Equal(t, `status='completed' && (initiator_id='m_a' || counterparty_id='m_a')`, q.Get("filter"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("perPage"))
	assert.Equal(t, dealExpand, q.Get("expand"))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
