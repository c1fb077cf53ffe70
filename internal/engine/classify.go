package engine

import "sort"

// Classification is the result of ranking one price within its day
type Classification struct {
	Tier Tier `json:"tier"`
	Rank int  `json:"rank"`
}

// neutralClassification is returned when a day has no prices to rank
// against. Medium/12 sits in the middle of the scale and keeps downstream
// arithmetic away from zero divisions.
var neutralClassification = Classification{Tier: TierMedium, Rank: 12}

// Classify ranks a single price within a day's price set. Rank is
// 1 + the count of strictly lower prices, so tied prices share the rank of
// the cheapest tied element. The tier is derived from the rank scaled onto
// a 24-hour day: ranks in the cheapest third are low, the middle third
// medium, the rest high.
func Classify(dayPrices []float64, price float64) Classification {
	n := len(dayPrices)
	if n == 0 {
		return neutralClassification
	}

	rank := 1
	for _, p := range dayPrices {
		if p < price {
			rank++
		}
	}
	if rank > n {
		rank = n
	}

	return Classification{Tier: tierForRank(rank, n), Rank: rank}
}

// ClassifyDay ranks every price of a day at once. Unlike Classify, tied
// prices get distinct ranks (earlier hour wins), so the returned ranks are
// always a permutation of 1..N. The result is index-aligned with prices.
func ClassifyDay(prices []float64) []Classification {
	n := len(prices)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return prices[order[a]] < prices[order[b]]
	})

	out := make([]Classification, n)
	for pos, idx := range order {
		rank := pos + 1
		out[idx] = Classification{Tier: tierForRank(rank, n), Rank: rank}
	}
	return out
}

// tierForRank maps a 1..n rank onto the low/medium/high split of a
// 24-hour day. The rank is projected onto 1..24 by taking the first slot
// of its proportional block, so a lone sample (rank 1 of 1) lands on slot
// 1 and classifies low.
func tierForRank(rank, n int) Tier {
	scaled := (rank-1)*24/n + 1
	switch {
	case scaled <= 8:
		return TierLow
	case scaled <= 16:
		return TierMedium
	default:
		return TierHigh
	}
}
