package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	statusConfirmed = "confirmed"
	statusCancelled = "cancelled"
	statusRefunded  = "refunded"
	statusPending   = "pending"
)

type Repository interface {
	GetSystemAnalytics(ctx context.Context, days int) (*SystemAnalytics, error)
	GetEventAnalytics(ctx context.Context, eventID uuid.UUID) (*EventAnalytics, error)
	GetPersonalAnalytics(ctx context.Context, userID uuid.UUID) (*PersonalAnalytics, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSystemAnalytics(ctx context.Context, days int) (*SystemAnalytics, error) {
	db := r.db.WithContext(ctx)
	var analytics SystemAnalytics

	if err := db.Table("users").Count(&analytics.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Table("events").Count(&analytics.TotalEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	byStatus, err := r.bookingsByStatus(db)
	if err != nil {
		return nil, err
	}
	analytics.BookingsByStatus = byStatus
	analytics.ActiveBookings = byStatus[statusConfirmed]

	if err := db.Table("bookings").
		Where("status = ?", statusConfirmed).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&analytics.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to calculate total revenue: %w", err)
	}

	// Most popular events (top 5 by confirmed tickets)
	if err := db.Table("bookings").
		Select("events.id AS event_id, events.title, events.location, SUM(bookings.num_tickets) AS total_tickets_booked").
		Joins("JOIN events ON events.id = bookings.event_id").
		Where("bookings.status = ?", statusConfirmed).
		Group("events.id, events.title, events.location").
		Order("total_tickets_booked DESC").
		Limit(5).
		Scan(&analytics.PopularEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get popular events: %w", err)
	}

	if err := db.Table("bookings").
		Select("events.event_type, SUM(bookings.num_tickets) AS tickets").
		Joins("JOIN events ON events.id = bookings.event_id").
		Where("bookings.status = ?", statusConfirmed).
		Group("events.event_type").
		Order("tickets DESC").
		Scan(&analytics.BookingsPerEventType).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookings per event type: %w", err)
	}

	daily, err := r.dailyRevenue(db, days)
	if err != nil {
		return nil, err
	}
	analytics.DailyRevenue = daily

	return &analytics, nil
}

func (r *repository) bookingsByStatus(db *gorm.DB) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Table("bookings").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	result := map[string]int64{statusPending: 0, statusConfirmed: 0, statusCancelled: 0, statusRefunded: 0}
	for _, sc := range counts {
		result[sc.Status] = sc.Count
	}
	return result, nil
}

// dailyRevenue buckets confirmations per UTC day in Go; date functions differ across SQL dialects
func (r *repository) dailyRevenue(db *gorm.DB, days int) ([]DailyMetric, error) {
	if days <= 0 {
		return []DailyMetric{}, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	var rows []struct {
		ConfirmedAt time.Time
		TotalPrice  int64
	}
	if err := db.Table("bookings").
		Select("confirmed_at, total_price").
		Where("status = ? AND confirmed_at >= ?", statusConfirmed, since).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily revenue: %w", err)
	}

	metrics := make([]DailyMetric, days)
	index := make(map[string]int, days)
	for i := range metrics {
		date := since.AddDate(0, 0, i).Format("2006-01-02")
		metrics[i].Date = date
		index[date] = i
	}
	for _, row := range rows {
		if i, ok := index[row.ConfirmedAt.UTC().Format("2006-01-02")]; ok {
			metrics[i].Bookings++
			metrics[i].Revenue += row.TotalPrice
		}
	}
	return metrics, nil
}

func (r *repository) GetEventAnalytics(ctx context.Context, eventID uuid.UUID) (*EventAnalytics, error) {
	db := r.db.WithContext(ctx)

	var event struct {
		ID               uuid.UUID
		Title            string
		AvailableTickets int
	}
	if err := db.Table("events").Select("id, title, available_tickets").Where("id = ?", eventID).Take(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	analytics := &EventAnalytics{
		EventID:          event.ID.String(),
		Title:            event.Title,
		AvailableTickets: event.AvailableTickets,
	}

	type statusTotals struct {
		Status  string
		Count   int64
		Tickets int64
		Revenue int64
	}
	var totals []statusTotals
	if err := db.Table("bookings").
		Select("status, COUNT(*) AS count, COALESCE(SUM(num_tickets), 0) AS tickets, COALESCE(SUM(total_price), 0) AS revenue").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate event bookings: %w", err)
	}

	for _, t := range totals {
		switch t.Status {
		case statusConfirmed:
			analytics.ConfirmedCount = t.Count
			analytics.TicketsSold = t.Tickets
			analytics.Revenue = t.Revenue
		case statusCancelled:
			analytics.CancelledCount = t.Count
		case statusRefunded:
			analytics.RefundedCount = t.Count
		case statusPending:
			analytics.PendingCount = t.Count
		}
	}

	// cancellation rate is over bookings that were ever paid for
	if settled := analytics.ConfirmedCount + analytics.CancelledCount + analytics.RefundedCount; settled > 0 {
		analytics.CancellationRate = float64(analytics.CancelledCount+analytics.RefundedCount) / float64(settled) * 100
	}

	var ratings struct {
		Count   int64
		Average float64
	}
	if err := db.Table("comments").
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("event_id = ?", eventID).
		Scan(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate comments: %w", err)
	}
	analytics.CommentCount = ratings.Count
	analytics.AverageRating = ratings.Average

	return analytics, nil
}

func (r *repository) GetPersonalAnalytics(ctx context.Context, userID uuid.UUID) (*PersonalAnalytics, error) {
	db := r.db.WithContext(ctx)
	var analytics PersonalAnalytics

	if err := db.Table("bookings").Where("user_id = ?", userID).Count(&analytics.TotalBookings).Error; err != nil {
		return nil, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var confirmed struct {
		Count   int64
		Tickets int64
		Spent   int64
	}
	if err := db.Table("bookings").
		Select("COUNT(*) AS count, COALESCE(SUM(num_tickets), 0) AS tickets, COALESCE(SUM(total_price), 0) AS spent").
		Where("user_id = ? AND status = ?", userID, statusConfirmed).
		Scan(&confirmed).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate user bookings: %w", err)
	}
	analytics.ConfirmedBookings = confirmed.Count
	analytics.TicketsPurchased = confirmed.Tickets
	analytics.TotalSpent = confirmed.Spent

	if err := db.Table("bookings").
		Joins("JOIN events ON events.id = bookings.event_id").
		Where("bookings.user_id = ? AND bookings.status = ? AND events.date > ?", userID, statusConfirmed, time.Now().UTC()).
		Distinct("bookings.event_id").
		Count(&analytics.UpcomingEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	return &analytics, nil
}
