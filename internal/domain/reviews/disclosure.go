package reviews

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// IsDisclosable: las reviews de un deal son públicas solo cuando ambas partes calificaron,
// es decir, hay al menos dos reviewers distintos. Se recalcula en cada lectura.
// Reviews de otro deal o sin reviewer identificable no cuentan.
func IsDisclosable(dealID string, dealReviews []Review) bool {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return false
	}

	reviewers := map[string]struct{}{}
	for _, r := range dealReviews {
		if strings.TrimSpace(r.DealID) != dealID {
			continue
		}
		id := strings.TrimSpace(r.ReviewerID)
		if id == "" {
			continue
		}
		reviewers[id] = struct{}{}
		if len(reviewers) >= 2 {
			return true
		}
	}
	return false
}

// IndexByDeal agrupa reviews por deal.
func IndexByDeal(all []Review) map[string][]Review {
	out := map[string][]Review{}
	for _, r := range all {
		id := strings.TrimSpace(r.DealID)
		if id == "" {
			continue
		}
		out[id] = append(out[id], r)
	}
	return out
}

// VisibleReviews filtra los candidatos dejando solo los de deals divulgables.
// byDeal debe contener el set completo y actual de reviews de cada deal.
func VisibleReviews(candidates []Review, byDeal map[string][]Review) []Review {
	out := make([]Review, 0, len(candidates))
	verdict := map[string]bool{}

	for _, r := range candidates {
		dealID := strings.TrimSpace(r.DealID)
		if dealID == "" {
			continue
		}
		ok, seen := verdict[dealID]
		if !seen {
			ok = IsDisclosable(dealID, byDeal[dealID])
			verdict[dealID] = ok
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// AggregateRating promedia primero por reviewer y luego entre reviewers,
// para que nadie gane peso por escribir muchas reviews del mismo sujeto.
// ok == false significa "sin rating" (nunca 0).
func AggregateRating(visible []Review) (avg float64, ok bool) {
	type acc struct {
		sum   int
		count int
	}
	per := map[string]*acc{}
	keys := make([]string, 0)

	for _, r := range visible {
		k := r.ReviewerKey()
		a, exists := per[k]
		if !exists {
			a = &acc{}
			per[k] = a
			keys = append(keys, k)
		}
		a.sum += r.Rating
		a.count++
	}
	if len(keys) == 0 {
		return 0, false
	}

	// orden fijo para que la suma en float sea reproducible
	sort.Strings(keys)

	total := 0.0
	for _, k := range keys {
		a := per[k]
		total += float64(a.sum) / float64(a.count)
	}
	return total / float64(len(keys)), true
}

// FormatAverage muestra el promedio sin redondear a entero (dos decimales).
func FormatAverage(avg float64, ok bool) string {
	if !ok {
		return "—"
	}
	return strconv.FormatFloat(avg, 'f', 2, 64)
}

const MaxStars = 5

// Stars redondea y recorta a [0, 5] solo para los glifos.
func Stars(rating float64) (on, off int) {
	if math.IsNaN(rating) {
		rating = 0
	}
	r := int(math.Round(math.Max(0, math.Min(MaxStars, rating))))
	return r, MaxStars - r
}

// StarGlyphs devuelve las dos tiras de glifos (llenos, vacíos).
func StarGlyphs(rating float64) (string, string) {
	on, off := Stars(rating)
	return strings.Repeat("★", on), strings.Repeat("☆", off)
}
