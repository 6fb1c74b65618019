package comments

import (
	"time"

	"eventhub/internal/shared/utils/response"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index:idx_comments_event_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_comments_event_user"`
	Text      string    `json:"text" gorm:"size:500;not null"`
	Rating    *int      `json:"rating,omitempty" gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Comment) TableName() string {
	return "comments"
}

// CommentWithAuthor is a comment joined with its author's display name
type CommentWithAuthor struct {
	Comment
	FirstName string
	LastName  string
}

type CommentResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	Rating     *int      `json:"rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *CommentWithAuthor) ToResponse() CommentResponse {
	name := c.FirstName
	if c.LastName != "" {
		name += " " + c.LastName
	}
	return CommentResponse{
		ID:         c.ID.String(),
		EventID:    c.EventID.String(),
		UserID:     c.UserID.String(),
		AuthorName: name,
		Text:       c.Text,
		Rating:     c.Rating,
		CreatedAt:  c.CreatedAt,
	}
}

type CreateCommentRequest struct {
	EventID string `json:"eventId" binding:"required,uuid"`
	Text    string `json:"text" binding:"required,min=1,max=500"`
	Rating  *int   `json:"rating" binding:"omitempty,min=1,max=5"`
}

type ListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PaginatedComments struct {
	Comments []CommentResponse `json:"comments"`
	Meta     response.PageMeta `json:"meta"`
}
