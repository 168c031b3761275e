package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/necesitomasreviews/backend/internal/domain"
)

const recentEventLimit = 20

// StatsService computes conversion analytics over the event store. Read-only.
type StatsService struct {
	events EventStore
	cards  CardStore
}

// NewStatsService creates a new StatsService.
func NewStatsService(events EventStore, cards CardStore) *StatsService {
	return &StatsService{events: events, cards: cards}
}

// conversionRate returns 100*n/d rounded to two decimals, and 0 when the
// denominator is zero.
func conversionRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*10000) / 100
}

func countEvents(events []*domain.Event) domain.EventCounts {
	var c domain.EventCounts
	for _, e := range events {
		switch e.Type {
		case domain.EventScan:
			c.Scans++
		case domain.EventReviewStarted:
			c.ReviewsStarted++
		case domain.EventReviewCompleted:
			c.ReviewsCompleted++
		}
	}
	return c
}

func rates(c domain.EventCounts) domain.ConversionRates {
	return domain.ConversionRates{
		ScanToReviewStart:     conversionRate(c.ReviewsStarted, c.Scans),
		ReviewStartToComplete: conversionRate(c.ReviewsCompleted, c.ReviewsStarted),
		ScanToReviewComplete:  conversionRate(c.ReviewsCompleted, c.Scans),
	}
}

// dailySeries buckets events by calendar date. One entry per distinct date
// present in the input, ascending; missing days are not gap-filled.
func dailySeries(events []*domain.Event) []domain.DailyStat {
	byDate := make(map[string]*domain.DailyStat)
	for _, e := range events {
		date := e.Timestamp.Format("2006-01-02")
		day, ok := byDate[date]
		if !ok {
			day = &domain.DailyStat{Date: date}
			byDate[date] = day
		}
		switch e.Type {
		case domain.EventScan:
			day.Scans++
		case domain.EventReviewStarted:
			day.ReviewsStarted++
		case domain.EventReviewCompleted:
			day.ReviewsCompleted++
		}
	}

	series := make([]domain.DailyStat, 0, len(byDate))
	for _, day := range byDate {
		series = append(series, *day)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// popularHours is a 24-bucket histogram of scan events by local hour of day.
func popularHours(events []*domain.Event) [24]int {
	var hours [24]int
	for _, e := range events {
		if e.Type == domain.EventScan {
			hours[e.Timestamp.Local().Hour()]++
		}
	}
	return hours
}

// recentEvents returns up to limit most recent events, newest first, with the
// reduced field set.
func recentEvents(events []*domain.Event, limit int) []domain.EventSummary {
	sorted := make([]*domain.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	summaries := make([]domain.EventSummary, len(sorted))
	for i, e := range sorted {
		summaries[i] = domain.EventSummary{
			ID:           e.ID,
			Type:         e.Type,
			Timestamp:    e.Timestamp,
			ReviewRating: e.ReviewRating,
		}
	}
	return summaries
}

// lastScanAt finds the most recent scan timestamp, nil when the card has no
// scans. Ties on identical timestamps go to the higher event id, which keeps
// the result deterministic.
func lastScanAt(events []*domain.Event) *time.Time {
	var best *domain.Event
	for _, e := range events {
		if e.Type != domain.EventScan {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) ||
			(e.Timestamp.Equal(best.Timestamp) && e.ID > best.ID) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	ts := best.Timestamp
	return &ts
}

// CardStats computes analytics for one card. The requester must own the card
// or hold an admin role.
func (s *StatsService) CardStats(ctx context.Context, cardID, requesterID, requesterRole string) (*domain.CardStats, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load card", err)
	}
	if card == nil {
		return nil, domain.ErrNotFound("card not found")
	}
	if card.UserID != requesterID && !domain.IsAdminRole(requesterRole) {
		return nil, domain.ErrForbidden("you do not own this card")
	}

	events, err := s.events.ListByCard(ctx, cardID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load events", err)
	}

	counts := countEvents(events)
	return &domain.CardStats{
		Card:            card,
		Counts:          counts,
		ConversionRates: rates(counts),
		DailyStats:      dailySeries(events),
		PopularHours:    popularHours(events),
		RecentEvents:    recentEvents(events, recentEventLimit),
	}, nil
}

// UserStats aggregates analytics across all of a user's cards. A user with
// zero cards gets a zeroed structure without further store reads.
func (s *StatsService) UserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load cards", err)
	}

	stats := &domain.UserStats{
		DailyStats: []domain.DailyStat{},
		CardStats:  []domain.CardBreakdown{},
	}
	if len(cards) == 0 {
		return stats, nil
	}

	var all []*domain.Event
	for _, card := range cards {
		events, err := s.events.ListByCard(ctx, card.ID)
		if err != nil {
			return nil, domain.ErrInternal("failed to load events", err)
		}
		all = append(all, events...)

		counts := countEvents(events)
		stats.CardStats = append(stats.CardStats, domain.CardBreakdown{
			CardID:           card.ID,
			Name:             card.Name,
			Scans:            counts.Scans,
			ReviewsCompleted: counts.ReviewsCompleted,
			ConversionRate:   conversionRate(counts.ReviewsCompleted, counts.Scans),
			LastScanAt:       lastScanAt(events),
		})
	}

	totals := countEvents(all)
	stats.TotalCards = len(cards)
	stats.TotalScans = totals.Scans
	stats.TotalReviews = totals.ReviewsCompleted
	stats.ConversionRate = conversionRate(totals.ReviewsCompleted, totals.Scans)
	stats.DailyStats = dailySeries(all)
	return stats, nil
}
