package notifications

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrRecipientNotFound = errors.New("recipient not found")

// Directory resolves who a booking message should be delivered to
type Directory interface {
	Recipient(ctx context.Context, userID, eventID string) (Recipient, error)
}

type gormDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) Recipient(ctx context.Context, userID, eventID string) (Recipient, error) {
	var user struct {
		Email     string
		FirstName string
		LastName  string
	}
	err := d.db.WithContext(ctx).Table("users").
		Select("email, first_name, last_name").
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recipient{}, ErrRecipientNotFound
		}
		return Recipient{}, fmt.Errorf("load user: %w", err)
	}

	var title string
	err = d.db.WithContext(ctx).Table("events").
		Select("title").
		Where("id = ?", eventID).
		Scan(&title).Error
	if err != nil {
		return Recipient{}, fmt.Errorf("load event: %w", err)
	}

	return Recipient{
		Email:      user.Email,
		Name:       user.FirstName + " " + user.LastName,
		EventTitle: title,
	}, nil
}
