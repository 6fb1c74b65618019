package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"eventhub/internal/shared/apperrors"
	"eventhub/internal/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	GetUpcoming(ctx context.Context, limit int) ([]Event, error)
	// GetUpcomingByTypes lists upcoming events of the given types, soonest first
	GetUpcomingByTypes(ctx context.Context, types []EventType, limit int) ([]Event, error)
	GetNewest(ctx context.Context, limit int) ([]Event, error)
	GetUserInterests(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// Update never writes available_tickets, whatever the caller puts in updates
func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	res := r.db.WithContext(ctx).Model(&Event{}).
		Where("id = ?", id).
		Omit("available_tickets").
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrEventNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete refuses while a booking of the event could still hold or claim tickets
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Table("bookings").
			Where("event_id = ? AND status IN ?", id, []string{"pending", "confirmed"}).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to count bookings: %w", err)
		}
		if active > 0 {
			return apperrors.ErrEventHasBookings
		}

		res := tx.Where("id = ?", id).Delete(&Event{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrEventNotFound
		}
		return nil
	})
}

func (r *repository) GetAll(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	db := r.applyFilters(r.db.WithContext(ctx).Model(&Event{}), query)

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	page, limit := query.pagination()
	offset := (page - 1) * limit

	err := db.Order("date ASC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, totalCount, nil
}

func (r *repository) applyFilters(db *gorm.DB, query EventListQuery) *gorm.DB {
	if query.Keyword != "" {
		term := "%" + strings.ToLower(query.Keyword) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	if query.Location != "" {
		db = db.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(query.Location)+"%")
	}

	if query.EventType != "" {
		db = db.Where("event_type = ?", query.EventType)
	}

	if query.StartDate != "" {
		if from, err := time.Parse("2006-01-02", query.StartDate); err == nil {
			db = db.Where("date >= ?", from)
		}
	}

	if query.EndDate != "" {
		if to, err := time.Parse("2006-01-02", query.EndDate); err == nil {
			// include the whole end day
			db = db.Where("date < ?", to.Add(24*time.Hour))
		}
	}

	if query.MinPrice != nil {
		db = db.Where("price >= ?", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		db = db.Where("price <= ?", *query.MaxPrice)
	}

	return db
}

func (r *repository) GetUpcoming(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("date > ?", time.Now().UTC()).
		Order("date ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *repository) GetUpcomingByTypes(ctx context.Context, types []EventType, limit int) ([]Event, error) {
	var events []Event
	if len(types) == 0 {
		return events, nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	err := r.db.WithContext(ctx).
		Where("event_type IN ? AND date > ?", names, time.Now().UTC()).
		Order("date ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get events by type: %w", err)
	}
	return events, nil
}

// GetNewest returns the most recently listed events that have not happened yet
func (r *repository) GetNewest(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("date > ?", time.Now().UTC()).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get newest events: %w", err)
	}
	return events, nil
}

func (r *repository) GetUserInterests(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var user users.User
	err := r.db.WithContext(ctx).Select("id", "interests").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user interests: %w", err)
	}
	return user.Interests, nil
}

func (q EventListQuery) pagination() (page, limit int) {
	page, limit = q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

// CalculateTotalPages calculates total pages for pagination
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
