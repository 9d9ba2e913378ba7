package memory

import (
	"context"
	"testing"
	"time"

	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/ports/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	s.PutMember(members.Member{ID: "m_bob", TelegramID: 42, Username: "@Bob_Seller"})
	s.PutMember(members.Member{ID: "m_alice", TelegramID: 7, Username: "alice"})
	s.PutDeal(deals.Deal{ID: "d1", InitiatorID: "m_alice", CounterpartyID: "m_bob", Status: deals.StatusCompleted, Created: base})
	s.PutDeal(deals.Deal{ID: "d2", InitiatorID: "m_bob", CounterpartyID: "m_carol", Created: base.Add(time.Hour)})
	s.PutReview(reviews.Review{ID: "r1", DealID: "d1", ReviewerID: "m_alice", RevieweeID: "m_bob", Rating: 5, Created: base})
	s.PutReview(reviews.Review{ID: "r2", DealID: "d1", ReviewerID: "m_bob", RevieweeID: "m_alice", Rating: 4, Created: base.Add(time.Minute)})
	return s
}

func TestMembers_Lookups(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Members()

	m, err := repo.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Bob_Seller", m.Username)

	m, err = repo.GetByUsername(ctx, "bob_seller")
	require.NoError(t, err)
	assert.Equal(t, "m_bob", m.ID)

	_, err = repo.GetByTelegramID(ctx, 0)
	assert.ErrorIs(t, err, records.ErrNotFound)
	_, err = repo.GetByUsername(ctx, "")
	assert.ErrorIs(t, err, records.ErrNotFound)

	now := time.Now().UTC()
	require.NoError(t, repo.SetScammer(ctx, "m_bob", true, &now))
	m, _ = repo.GetByID(ctx, "m_bob")
	assert.True(t, m.Scammer)
	require.NotNil(t, m.ScammerAt)

	assert.ErrorIs(t, repo.SetVerified(ctx, "nope", true), records.ErrNotFound)
}

func TestDeals_ListFilterAndExpand(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	d, err := s.Deals().GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, d.Initiator)
	assert.Equal(t, "alice", d.Initiator.Username)
	require.NotNil(t, d.Counterparty)
	assert.Equal(t, int64(42), d.Counterparty.TelegramID)

	// counterparty inexistente: sin expansión
	d2, err := s.Deals().GetByID(ctx, "d2")
	require.NoError(t, err)
	assert.Nil(t, d2.Counterparty)
	assert.Equal(t, deals.StatusPending, d2.Status)

	all, err := s.Deals().List(ctx, deals.Filter{MemberID: "m_bob"}, records.Page{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d2", all[0].ID)

	done, err := s.Deals().List(ctx, deals.Filter{Status: deals.StatusCompleted}, records.Page{})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "d1", done[0].ID)

	second, err := s.Deals().List(ctx, deals.Filter{}, records.Page{Page: 2, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "d1", second[0].ID)

	empty, err := s.Deals().List(ctx, deals.Filter{}, records.Page{Page: 5, PerPage: 1})
	require.NoError(t, err)
	assert.Empty(t, empty)

	status := deals.StatusDisputed
	require.NoError(t, s.Deals().Update(ctx, "d1", deals.Patch{Status: &status}))
	d, _ = s.Deals().GetByID(ctx, "d1")
	assert.Equal(t, deals.StatusDisputed, d.Status)

	require.NoError(t, s.Deals().Delete(ctx, "d2"))
	assert.ErrorIs(t, s.Deals().Delete(ctx, "d2"), records.ErrNotFound)
}

func TestReviews_DenormalizedUsernamesAndOrder(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	r, err := s.Reviews().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "bob_seller", r.RevieweeUsername)
	require.NotNil(t, r.Reviewee)
	assert.Equal(t, int64(42), r.RevieweeTelegramID())

	byDeal, err := s.Reviews().ListByDeal(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, byDeal, 2)
	assert.Equal(t, "r2", byDeal[0].ID)

	about, err := s.Reviews().ListAboutUsername(ctx, "BOB_SELLER", records.Page{})
	require.NoError(t, err)
	require.Len(t, about, 1)
	assert.Equal(t, "r1", about[0].ID)

	involving, err := s.Reviews().ListInvolvingMember(ctx, "m_bob", records.Page{})
	require.NoError(t, err)
	assert.Len(t, involving, 2)
}

func TestReviews_SetResponseIsConditional(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	at := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Reviews().SetResponse(ctx, "r1", "thanks", at))
	assert.ErrorIs(t, s.Reviews().SetResponse(ctx, "r1", "again", at), records.ErrConflict)
	assert.ErrorIs(t, s.Reviews().SetResponse(ctx, "missing", "x", at), records.ErrNotFound)

	r, _ := s.Reviews().GetByID(ctx, "r1")
	assert.Equal(t, "thanks", r.Response)
	require.NotNil(t, r.ResponseAt)
	assert.Equal(t, at, *r.ResponseAt)
}

func TestPut_GeneratesIDs(t *testing.T) {
	s := NewStore()
	m := s.PutMember(members.Member{TelegramID: 1})
	assert.NotEmpty(t, m.ID)
	n, err := s.Members().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
