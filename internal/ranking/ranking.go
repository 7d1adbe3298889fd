// Package ranking scores candidate doctors and clinics from heterogeneous
// quality signals (star rating, review count) into a single composite score.
package ranking

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"MedReportAgent/internal/domain"
)

const (
	ratingWeight = 0.6
	reviewWeight = 0.4

	// keepCount is the number of ranked candidates returned. Callers display
	// fewer; the margin survives later filtering without a re-rank.
	keepCount = 6
)

// Rank coerces each listing's signals to numbers, min-max normalizes the
// rating and review columns across the whole set, combines them into a score
// in [0,1] rounded to 4 decimals, and returns the top candidates ordered by
// score descending. Ties keep their discovery order.
func Rank(listings []domain.CandidateListing) []domain.Candidate {
	if len(listings) == 0 {
		return nil
	}

	candidates := make([]domain.Candidate, len(listings))
	ratings := make([]float64, len(listings))
	reviews := make([]float64, len(listings))
	for i, l := range listings {
		c := domain.Candidate{
			Name:    l.Name,
			Address: l.Address,
			Phone:   l.Phone,
			Rating:  parseRating(l.Rating),
			Reviews: parseReviews(l.Reviews),
		}
		candidates[i] = c
		ratings[i] = c.Rating
		reviews[i] = float64(c.Reviews)
	}

	normRatings := normalize(ratings)
	normReviews := normalize(reviews)

	for i := range candidates {
		score := ratingWeight*normRatings[i] + reviewWeight*normReviews[i]
		candidates[i].Score = math.Round(score*10000) / 10000
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > keepCount {
		candidates = candidates[:keepCount]
	}
	return candidates
}

// normalize applies min-max scaling. A constant column maps to 0.5 everywhere:
// it avoids dividing by zero and does not bias a fully tied set.
func normalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func parseRating(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseReviews(raw string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return v
}
