package inventory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reason string

const (
	ReasonFulfillment  Reason = "FULFILLMENT"
	ReasonCancellation Reason = "CANCELLATION"
	ReasonCompensation Reason = "COMPENSATION"
	ReasonRestock      Reason = "RESTOCK"
)

// Entry labels a ledger operation in the movement journal
type Entry struct {
	Reason    Reason
	Reference string
}

// Movement is one row of the append-only inventory journal.
// Summing Delta per event reproduces the event's available_tickets.
type Movement struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID      uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	Delta        int       `json:"delta" gorm:"not null"`
	Reason       Reason    `json:"reason" gorm:"type:varchar(20);not null"`
	Reference    string    `json:"reference" gorm:"size:100;not null;index"`
	BalanceAfter int       `json:"balance_after" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Movement) TableName() string {
	return "inventory_movements"
}

// Hold is the net debit a reference still has on an event
type Hold struct {
	EventID   uuid.UUID
	Reference string
	Quantity  int
}

type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskDone    TaskStatus = "DONE"
)

// CompensationTask is a credit that could not be applied inline and waits for the reconciler
type CompensationTask struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID  `json:"event_id" gorm:"type:uuid;not null"`
	Quantity  int        `json:"quantity" gorm:"not null"`
	Reference string     `json:"reference" gorm:"size:100;not null;index"`
	Reason    Reason     `json:"reason" gorm:"type:varchar(20);not null"`
	Status    TaskStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`
	Attempts  int        `json:"attempts" gorm:"not null;default:0"`
	LastError string     `json:"last_error" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (t *CompensationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (CompensationTask) TableName() string {
	return "compensation_tasks"
}

// eventStock maps the two columns of the events table the ledger owns
type eventStock struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AvailableTickets int
}

func (eventStock) TableName() string {
	return "events"
}
