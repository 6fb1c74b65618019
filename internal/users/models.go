package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"not null;default:'USER'"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	// event types the user wants recommended
	Interests []string  `json:"interests" gorm:"serializer:json;type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
