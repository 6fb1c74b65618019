package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a ticketed listing. AvailableTickets is owned by the inventory ledger
// and is never written through this package's update path.
type Event struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string    `json:"title" gorm:"not null;size:255"`
	Description      string    `json:"description" gorm:"type:text"`
	Date             time.Time `json:"date" gorm:"not null;index"`
	Time             string    `json:"time" gorm:"size:20"`
	Location         string    `json:"location" gorm:"not null;size:255"`
	EventType        EventType `json:"event_type" gorm:"type:varchar(20);not null;default:'other';index"`
	ImageURL         string    `json:"image_url" gorm:"size:500"`
	Price            int64     `json:"price" gorm:"not null;check:price >= 0"`
	Currency         string    `json:"currency" gorm:"size:3;not null;default:'INR'"`
	AvailableTickets int       `json:"available_tickets" gorm:"not null;default:0;check:available_tickets >= 0"`
	OrganizerID      uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

type EventResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	Location         string    `json:"location"`
	EventType        EventType `json:"event_type"`
	ImageURL         string    `json:"image_url"`
	Price            int64     `json:"price"`
	Currency         string    `json:"currency"`
	AvailableTickets int       `json:"available_tickets"`
	OrganizerID      string    `json:"organizer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		Date:             e.Date,
		Time:             e.Time,
		Location:         e.Location,
		EventType:        e.EventType,
		ImageURL:         e.ImageURL,
		Price:            e.Price,
		Currency:         e.Currency,
		AvailableTickets: e.AvailableTickets,
		OrganizerID:      e.OrganizerID.String(),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

type CreateEventRequest struct {
	Title            string    `json:"title" binding:"required,min=3,max=255"`
	Description      string    `json:"description" binding:"max=2000"`
	Date             time.Time `json:"date" binding:"required"`
	Time             string    `json:"time" binding:"max=20"`
	Location         string    `json:"location" binding:"required,min=2,max=255"`
	EventType        string    `json:"event_type" binding:"omitempty,eventtype"`
	ImageURL         string    `json:"image_url" binding:"omitempty,url"`
	Price            int64     `json:"price" binding:"min=0"`
	Currency         string    `json:"currency" binding:"omitempty,currency"`
	AvailableTickets int       `json:"available_tickets" binding:"min=0,max=1000000"`
}

// UpdateEventRequest has no ticket field. Restocking goes through RestockRequest.
type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Date        *time.Time `json:"date"`
	Time        *string    `json:"time" binding:"omitempty,max=20"`
	Location    *string    `json:"location" binding:"omitempty,min=2,max=255"`
	EventType   *string    `json:"event_type" binding:"omitempty,eventtype"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
	Price       *int64     `json:"price" binding:"omitempty,min=0"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=1000000"`
}

type EventListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Keyword   string `form:"keyword"`
	Location  string `form:"location"`
	EventType string `form:"eventType" binding:"omitempty,eventtype"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	MinPrice  *int64 `form:"minPrice" binding:"omitempty,min=0"`
	MaxPrice  *int64 `form:"maxPrice" binding:"omitempty,min=0"`
}

// Recommendations are upcoming events matching the caller's interests. When nothing
// matches, Personalized is false and Events holds the newest listings instead.
type Recommendations struct {
	Personalized bool            `json:"personalized"`
	Events       []EventResponse `json:"events"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}
