package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type OfferCount struct {
	OfferID string `json:"offerId"`
	Count   int    `json:"count"`
}

// UsageStats summarizes a plan owner's redemption history.
type UsageStats struct {
	TotalUsages           int
	ThisMonthUsages       int
	TotalSavingsThisMonth decimal.Decimal
	AverageDiscount       decimal.Decimal
	TopOffers             []OfferCount
	LastUsed              *time.Time
}

// SummarizeUsage builds stats over successful redemptions in history.
// monthYear selects the "this month" bucket.
func SummarizeUsage(history []*Redemption, monthYear string) UsageStats {
	stats := UsageStats{
		TotalSavingsThisMonth: decimal.Zero,
		AverageDiscount:       decimal.Zero,
		TopOffers:             []OfferCount{},
	}
	percentSum := 0
	offers := map[string]int{}
	for _, r := range history {
		if !r.Succeeded() {
			continue
		}
		stats.TotalUsages++
		percentSum += r.DiscountPercent
		if r.MonthYear == monthYear {
			stats.ThisMonthUsages++
			stats.TotalSavingsThisMonth = stats.TotalSavingsThisMonth.Add(r.DiscountAmount)
		}
		if r.Metadata.OfferID != "" {
			offers[r.Metadata.OfferID]++
		}
		if stats.LastUsed == nil || r.VerifiedAt.After(*stats.LastUsed) {
			t := r.VerifiedAt
			stats.LastUsed = &t
		}
	}
	if stats.TotalUsages > 0 {
		stats.AverageDiscount = decimal.NewFromInt(int64(percentSum)).
			Div(decimal.NewFromInt(int64(stats.TotalUsages))).Round(2)
	}
	for id, n := range offers {
		stats.TopOffers = append(stats.TopOffers, OfferCount{OfferID: id, Count: n})
	}
	sort.Slice(stats.TopOffers, func(i, j int) bool {
		if stats.TopOffers[i].Count != stats.TopOffers[j].Count {
			return stats.TopOffers[i].Count > stats.TopOffers[j].Count
		}
		return stats.TopOffers[i].OfferID < stats.TopOffers[j].OfferID
	})
	if len(stats.TopOffers) > 5 {
		stats.TopOffers = stats.TopOffers[:5]
	}
	return stats
}
