// Package comments stores event discussion and pushes new comments to live subscribers.
package comments

import (
	"context"
	"strings"

	"eventhub/internal/events"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/utils/response"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

// EventReader confirms the event being commented on exists
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type Service interface {
	AddComment(ctx context.Context, actor users.Actor, req CreateCommentRequest) (*CommentResponse, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, query ListQuery) (*PaginatedComments, error)
	DeleteComment(ctx context.Context, id uuid.UUID, actor users.Actor) error
}

type service struct {
	repo     Repository
	events   EventReader
	notifier realtime.Notifier
	log      *logger.Logger
}

func NewService(repo Repository, events EventReader, notifier realtime.Notifier, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		events:   events,
		notifier: notifier,
		log:      log.WithComponent("comments"),
	}
}

func (s *service) AddComment(ctx context.Context, actor users.Actor, req CreateCommentRequest) (*CommentResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.ErrEventNotFound
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	comment := &Comment{
		EventID: eventID,
		UserID:  actor.ID,
		Text:    strings.TrimSpace(req.Text),
		Rating:  req.Rating,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}

	stored, err := s.repo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := stored.ToResponse()

	msg, err := realtime.NewMessage(realtime.TypeNewComment, eventID.String(), resp)
	if err == nil {
		err = s.notifier.Publish(ctx, eventID.String(), msg)
	}
	if err != nil {
		s.log.WarnContext(ctx, "Realtime publish failed", "event_id", eventID.String(), "error", err)
	}

	return &resp, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID, query ListQuery) (*PaginatedComments, error) {
	page, limit := query.Page, query.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	comments, total, err := s.repo.ListByEvent(ctx, eventID, page, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]CommentResponse, len(comments))
	for i := range comments {
		responses[i] = comments[i].ToResponse()
	}
	return &PaginatedComments{
		Comments: responses,
		Meta:     response.NewPageMeta(page, limit, total),
	}, nil
}

// DeleteComment is allowed for the author and for admins
func (s *service) DeleteComment(ctx context.Context, id uuid.UUID, actor users.Actor) error {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
