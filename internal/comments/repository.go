package comments

import (
	"context"
	"errors"
	"fmt"

	"eventhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*CommentWithAuthor, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, page, limit int) ([]CommentWithAuthor, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, comment *Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *repository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, users.first_name, users.last_name").
		Joins("LEFT JOIN users ON users.id = comments.user_id")
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*CommentWithAuthor, error) {
	var comment CommentWithAuthor
	err := r.withAuthor(ctx).Where("comments.id = ?", id).Take(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ListByEvent returns newest first
func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID, page, limit int) ([]CommentWithAuthor, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Comment{}).Where("event_id = ?", eventID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	var comments []CommentWithAuthor
	err := r.withAuthor(ctx).
		Where("comments.event_id = ?", eventID).
		Order("comments.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Comment{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
