package reviews

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rv(id, deal, reviewer string, rating int) Review {
	return Review{ID: id, DealID: deal, ReviewerID: reviewer, Rating: rating}
}

func TestIsDisclosable_NeedsTwoDistinctReviewers(t *testing.T) {
	assert.False(t, IsDisclosable("d1", nil))
	assert.False(t, IsDisclosable("d1", []Review{rv("r1", "d1", "a", 5)}))

	// mismo reviewer dos veces no alcanza
	assert.False(t, IsDisclosable("d1", []Review{rv("r1", "d1", "a", 5), rv("r2", "d1", "a", 4)}))

	assert.True(t, IsDisclosable("d1", []Review{rv("r1", "d1", "a", 5), rv("r2", "d1", "b", 4)}))
}

func TestIsDisclosable_IgnoresOtherDealsAndMissingReviewer(t *testing.T) {
	assert.False(t, IsDisclosable("d1", []Review{rv("r1", "d1", "a", 5), rv("r2", "d2", "b", 4)}))
	assert.False(t, IsDisclosable("d1", []Review{rv("r1", "d1", "a", 5), rv("r2", "d1", " ", 4)}))
	assert.False(t, IsDisclosable("", []Review{rv("r1", "", "a", 5), rv("r2", "", "b", 4)}))
}

func TestVisibleReviews_SecondReviewFlipsVisibility(t *testing.T) {
	first := rv("r1", "d1", "a", 5)
	other := rv("r3", "d2", "x", 3)

	candidates := []Review{first, other}
	byDeal := IndexByDeal([]Review{first, other})
	assert.Empty(t, VisibleReviews(candidates, byDeal))

	second := rv("r2", "d1", "b", 2)
	byDeal = IndexByDeal([]Review{first, second, other})
	got := VisibleReviews(candidates, byDeal)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

func TestVisibleReviews_DropsReviewsWithoutDeal(t *testing.T) {
	got := VisibleReviews([]Review{rv("r1", "", "a", 5)}, map[string][]Review{})
	assert.Empty(t, got)
}

func TestAggregateRating_TwoLevelMean(t *testing.T) {
	visible := []Review{
		rv("r1", "d1", "a", 5),
		rv("r2", "d2", "a", 5),
		rv("r3", "d3", "b", 1),
	}
	avg, ok := AggregateRating(visible)
	require.True(t, ok)
	assert.InDelta(t, 3.0, avg, 1e-9)

	// el promedio plano daría 11/3
	assert.NotEqual(t, FormatAverage(11.0/3.0, true), FormatAverage(avg, ok))
	assert.Equal(t, "3.00", FormatAverage(avg, ok))
}

func TestAggregateRating_FallsBackToUsernameKey(t *testing.T) {
	visible := []Review{
		{ID: "r1", ReviewerUsername: "Alice", Rating: 4},
		{ID: "r2", ReviewerUsername: "alice", Rating: 2},
		{ID: "r3", ReviewerUsername: "bob", Rating: 5},
	}
	avg, ok := AggregateRating(visible)
	require.True(t, ok)
	assert.InDelta(t, 4.0, avg, 1e-9)
}

func TestAggregateRating_NoReviewsMeansNoRating(t *testing.T) {
	avg, ok := AggregateRating(nil)
	assert.False(t, ok)
	assert.Zero(t, avg)
	assert.Equal(t, "—", FormatAverage(avg, ok))
}

func TestStars(t *testing.T) {
	on, off := Stars(4.6)
	assert.Equal(t, 5, on)
	assert.Equal(t, 0, off)
	assert.Equal(t, "4.60", FormatAverage(4.6, true))

	cases := map[float64]int{
		-2:         0,
		0:          0,
		2.49:       2,
		2.5:        3,
		7:          5,
		math.NaN(): 0,
	}
	for in, want := range cases {
		on, off := Stars(in)
		assert.Equal(t, want, on, "rating %v", in)
		assert.Equal(t, MaxStars, on+off)
	}

	full, empty := StarGlyphs(3)
	assert.Equal(t, "★★★", full)
	assert.Equal(t, "☆☆", empty)
}
