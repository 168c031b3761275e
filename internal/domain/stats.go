package domain

import "time"

// EventCounts partitions a scope's events by funnel stage.
type EventCounts struct {
	Scans            int `json:"scans"`
	ReviewsStarted   int `json:"reviewsStarted"`
	ReviewsCompleted int `json:"reviewsCompleted"`
}

// ConversionRates are funnel-stage ratios as percentages rounded to two
// decimals. A rate with a zero denominator is 0, never NaN.
type ConversionRates struct {
	ScanToReviewStart     float64 `json:"scanToReviewStartRate"`
	ReviewStartToComplete float64 `json:"reviewStartToCompleteRate"`
	ScanToReviewComplete  float64 `json:"scanToReviewCompleteRate"`
}

// DailyStat is one calendar day's counts. Date is YYYY-MM-DD.
type DailyStat struct {
	Date             string `json:"date"`
	Scans            int    `json:"scans"`
	ReviewsStarted   int    `json:"reviewsStarted"`
	ReviewsCompleted int    `json:"reviewsCompleted"`
}

// CardStats is the analytics payload for a single card.
type CardStats struct {
	Card            *Card           `json:"card"`
	Counts          EventCounts     `json:"counts"`
	ConversionRates ConversionRates `json:"conversionRates"`
	DailyStats      []DailyStat     `json:"dailyStats"`
	PopularHours    [24]int         `json:"popularHours"`
	RecentEvents    []EventSummary  `json:"recentEvents"`
}

// CardBreakdown is one card's row in the per-user aggregate.
type CardBreakdown struct {
	CardID           string     `json:"cardId"`
	Name             string     `json:"name"`
	Scans            int        `json:"scans"`
	ReviewsCompleted int        `json:"reviewsCompleted"`
	ConversionRate   float64    `json:"conversionRate"`
	LastScanAt       *time.Time `json:"lastScanAt"`
}

// UserStats aggregates funnel analytics across all of a user's cards.
type UserStats struct {
	TotalCards     int             `json:"totalCards"`
	TotalScans     int             `json:"totalScans"`
	TotalReviews   int             `json:"totalReviews"`
	ConversionRate float64         `json:"conversionRate"`
	DailyStats     []DailyStat     `json:"dailyStats"`
	CardStats      []CardBreakdown `json:"cardStats"`
}
