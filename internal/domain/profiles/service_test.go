package profiles

import (
	"context"
	"testing"

	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup struct {
	byTID      map[int64]members.Member
	byUsername map[string]members.Member
}

func (l lookup) GetByTelegramID(ctx context.Context, tid int64) (members.Member, error) {
	if m, ok := l.byTID[tid]; ok {
		return m, nil
	}
	return members.Member{}, records.ErrNotFound
}

func (l lookup) GetByUsername(ctx context.Context, u string) (members.Member, error) {
	if m, ok := l.byUsername[u]; ok {
		return m, nil
	}
	return members.Member{}, records.ErrNotFound
}

// source aplica el gate real sobre un slice fijo y pagina como el store.
type source struct {
	all []reviews.Review
}

func (s source) visible(match func(reviews.Review) bool) []reviews.Review {
	candidates := make([]reviews.Review, 0)
	for _, r := range s.all {
		if match(r) {
			candidates = append(candidates, r)
		}
	}
	return reviews.VisibleReviews(candidates, reviews.IndexByDeal(s.all))
}

func pageOf(items []reviews.Review, page records.Page) []reviews.Review {
	p := page.Normalize()
	from := p.Offset()
	if from >= len(items) {
		return []reviews.Review{}
	}
	to := from + p.PerPage
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

func aboutMember(id string) func(reviews.Review) bool {
	return func(r reviews.Review) bool { return r.RevieweeID == id }
}

func aboutUsername(u string) func(reviews.Review) bool {
	return func(r reviews.Review) bool { return r.RevieweeUsername == u }
}

func (s source) VisibleAboutMember(ctx context.Context, id string, page records.Page) ([]reviews.Review, error) {
	return pageOf(s.visible(aboutMember(id)), page), nil
}

func (s source) VisibleAboutUsername(ctx context.Context, u string, page records.Page) ([]reviews.Review, error) {
	return pageOf(s.visible(aboutUsername(u)), page), nil
}

func (s source) VisibleInvolvingMember(ctx context.Context, id string) ([]reviews.Review, error) {
	return s.visible(func(r reviews.Review) bool { return r.ReviewerID == id || r.RevieweeID == id }), nil
}

func (s source) AggregateAboutMember(ctx context.Context, id string) (float64, bool, error) {
	avg, ok := reviews.AggregateRating(s.visible(aboutMember(id)))
	return avg, ok, nil
}

func (s source) AggregateAboutUsername(ctx context.Context, u string) (float64, bool, error) {
	avg, ok := reviews.AggregateRating(s.visible(aboutUsername(u)))
	return avg, ok, nil
}

func newTestService() *Service {
	bob := members.Member{ID: "m_bob", TelegramID: 42424242, Username: "bob_seller"}
	l := lookup{
		byTID:      map[int64]members.Member{bob.TelegramID: bob},
		byUsername: map[string]members.Member{"bob_seller": bob},
	}
	src := source{all: []reviews.Review{
		// deal_1: ambas partes => público
		{ID: "r1", DealID: "deal_1", ReviewerID: "m_a", RevieweeID: "m_bob", RevieweeUsername: "OldBob", Rating: 5},
		{ID: "r2", DealID: "deal_1", ReviewerID: "m_bob", ReviewerUsername: "bob_seller", RevieweeID: "m_a", Rating: 5},
		// deal_2: mismo reviewer otra vez
		{ID: "r3", DealID: "deal_2", ReviewerID: "m_a", RevieweeID: "m_bob", Rating: 5},
		{ID: "r4", DealID: "deal_2", ReviewerID: "m_bob", RevieweeID: "m_a", Rating: 4},
		// deal_3: otro reviewer
		{ID: "r5", DealID: "deal_3", ReviewerID: "m_c", RevieweeID: "m_bob", Rating: 1},
		{ID: "r6", DealID: "deal_3", ReviewerID: "m_bob", RevieweeID: "m_c", Rating: 2},
		// deal_4: solo una parte => oculto
		{ID: "r7", DealID: "deal_4", ReviewerID: "m_d", RevieweeID: "m_bob", RevieweeUsername: "bob_secret", Rating: 1},
		// sin member: solo username
		{ID: "r8", DealID: "deal_5", ReviewerID: "m_a", RevieweeUsername: "ghost_user", Rating: 3},
		{ID: "r9", DealID: "deal_5", ReviewerID: "m_x", RevieweeUsername: "someone", Rating: 3},
	}}
	return NewService(l, src)
}

func TestLoad_UsernameRedirectsToCanonical(t *testing.T) {
	p, err := newTestService().Load(context.Background(), "@Bob_Seller", records.Page{})
	require.NoError(t, err)
	assert.Equal(t, "/user/42424242", p.RedirectTo)
	assert.Nil(t, p.Member)
}

func TestLoad_NumericProfile(t *testing.T) {
	p, err := newTestService().Load(context.Background(), "42424242", records.Page{})
	require.NoError(t, err)

	require.NotNil(t, p.Member)
	assert.Empty(t, p.RedirectTo)
	assert.Len(t, p.Reviews, 3)

	// m_a: (5+5)/2 = 5, m_c: 1 => 3.00; r7 queda fuera por el gate
	require.True(t, p.HasRating)
	assert.InDelta(t, 3.0, p.Average, 1e-9)
	// bob_secret solo aparece en deal_4, que no es público
	assert.Equal(t, []string{"bob_seller", "oldbob"}, p.Usernames)
}

func TestLoad_AverageIgnoresPaging(t *testing.T) {
	svc := newTestService()
	for _, page := range []records.Page{{}, {Page: 1, PerPage: 1}, {Page: 2, PerPage: 1}, {Page: 3, PerPage: 1}, {Page: 9, PerPage: 1}} {
		p, err := svc.Load(context.Background(), "42424242", page)
		require.NoError(t, err)
		require.True(t, p.HasRating, "page %+v", page)
		assert.InDelta(t, 3.0, p.Average, 1e-9, "page %+v", page)
	}

	p, err := svc.Load(context.Background(), "42424242", records.Page{Page: 3, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, p.Reviews, 1)
	assert.Equal(t, "r5", p.Reviews[0].ID)
}

func TestLoad_UsernameFallback(t *testing.T) {
	p, err := newTestService().Load(context.Background(), "ghost_user", records.Page{})
	require.NoError(t, err)

	assert.Nil(t, p.Member)
	assert.Empty(t, p.RedirectTo)
	assert.Equal(t, "ghost_user", p.Username)
	require.Len(t, p.Reviews, 1)
	assert.Equal(t, "r8", p.Reviews[0].ID)
}

func TestLoad_NotFound(t *testing.T) {
	svc := newTestService()
	for _, h := range []string{"99999999", "x", "", "bad-handle!"} {
		_, err := svc.Load(context.Background(), h, records.Page{})
		assert.ErrorIs(t, err, ErrNotFound, "handle %q", h)
	}
}

func TestUsernameHistory(t *testing.T) {
	m := members.Member{ID: "m1", Username: "Current"}
	got := UsernameHistory(m, []reviews.Review{
		{ReviewerID: "m1", ReviewerUsername: "old_one"},
		{RevieweeID: "m1", RevieweeUsername: "OLD_ONE"},
		{ReviewerID: "m2", ReviewerUsername: "not_mine", RevieweeID: "m1"},
	})
	assert.Equal(t, []string{"current", "old_one"}, got)
}
