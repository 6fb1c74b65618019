package events

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/inventory"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/constants"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error)
	GetRecommendations(ctx context.Context, userID uuid.UUID) (*Recommendations, error)
	Restock(ctx context.Context, id uuid.UUID, req RestockRequest) (*EventResponse, error)
	GetMovements(ctx context.Context, id uuid.UUID, limit int) ([]inventory.Movement, error)
	// InvalidateStock drops cached copies of an event after its counter moved
	InvalidateStock(ctx context.Context, eventID uuid.UUID, available int)
}

// StockLedger is the part of the inventory ledger the events module drives
type StockLedger interface {
	Credit(ctx context.Context, eventID uuid.UUID, count int, entry inventory.Entry) (int, error)
	Movements(ctx context.Context, eventID uuid.UUID, limit int) ([]inventory.Movement, error)
}

type service struct {
	repo         Repository
	ledger       StockLedger
	cacheService cache.Service
	log          *logger.Logger
	currency     string
	group        singleflight.Group
}

// NewService builds the events service. cacheService may be nil, in which case every read hits the database.
// defaultCurrency prices events created without one.
func NewService(repo Repository, ledger StockLedger, cacheService cache.Service, log *logger.Logger, defaultCurrency string) Service {
	if defaultCurrency == "" {
		defaultCurrency = "INR"
	}
	return &service{
		repo:         repo,
		ledger:       ledger,
		cacheService: cacheService,
		log:          log.WithComponent("events"),
		currency:     strings.ToUpper(defaultCurrency),
	}
}

// OpeningReference is the ledger reference of an event's initial stock
func OpeningReference(eventID uuid.UUID) string {
	return "opening:" + eventID.String()
}

func (s *service) CreateEvent(ctx context.Context, organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if !req.Date.After(time.Now()) {
		return nil, apperrors.ErrEventInPast
	}

	eventType := EventType(req.EventType)
	if eventType == "" {
		eventType = EventTypeOther
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}

	event := &Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Date:        req.Date.UTC(),
		Time:        req.Time,
		Location:    strings.TrimSpace(req.Location),
		EventType:   eventType,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Currency:    currency,
		OrganizerID: organizerID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	if req.AvailableTickets > 0 {
		available, err := s.ledger.Credit(ctx, event.ID, req.AvailableTickets, inventory.Entry{
			Reason:    inventory.ReasonRestock,
			Reference: OpeningReference(event.ID),
		})
		if err != nil {
			// drop the stockless row so a retried create does not leave a duplicate
			if delErr := s.repo.Delete(ctx, event.ID); delErr != nil {
				s.log.ErrorContext(ctx, "Failed to remove event without stock", "event_id", event.ID.String(), "error", delErr)
			}
			return nil, fmt.Errorf("failed to open stock for event %s: %w", event.ID, err)
		}
		event.AvailableTickets = available
	}

	s.invalidate(ctx, nil)
	s.log.InfoContext(ctx, "Event created", "event_id", event.ID.String(), "tickets", event.AvailableTickets)

	response := event.ToResponse()
	return &response, nil
}

func (s *service) GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	key := constants.BuildEventDetailKey(id.String())

	var cached EventResponse
	if s.getCache(ctx, key, &cached) {
		return &cached, nil
	}

	// collapse concurrent misses for a hot event into one query
	// waiters share this load, so one caller's cancellation must not fail the rest
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		event, err := s.repo.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		response := event.ToResponse()
		s.setCache(loadCtx, key, response, constants.TTL_EVENT_DETAIL)
		return response, nil
	})
	if err != nil {
		return nil, err
	}

	response := v.(EventResponse)
	return &response, nil
}

func (s *service) UpdateEvent(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	updates := make(map[string]interface{})

	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Date != nil {
		if !req.Date.After(time.Now()) {
			return nil, apperrors.ErrEventInPast
		}
		updates["date"] = req.Date.UTC()
	}
	if req.Time != nil {
		updates["time"] = *req.Time
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.EventType != nil {
		updates["event_type"] = EventType(*req.EventType)
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	updates["updated_at"] = time.Now().UTC()

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, &id)

	response := event.ToResponse()
	return &response, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, &id)
	s.log.InfoContext(ctx, "Event deleted", "event_id", id.String())
	return nil
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	page, limit := query.pagination()
	key := constants.BuildEventListKey(queryFingerprint(query), page, limit)

	var cached PaginatedEvents
	if s.getCache(ctx, key, &cached) {
		return &cached, nil
	}

	events, total, err := s.repo.GetAll(ctx, query)
	if err != nil {
		return nil, err
	}

	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = events[i].ToResponse()
	}

	result := &PaginatedEvents{
		Events:     responses,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: CalculateTotalPages(total, limit),
	}
	s.setCache(ctx, key, result, constants.TTL_EVENT_LIST)
	return result, nil
}

func (s *service) GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	events, err := s.repo.GetUpcoming(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	return toResponses(events), nil
}

const (
	recommendationLimit = 20
	fallbackLimit       = 10
)

func (s *service) GetRecommendations(ctx context.Context, userID uuid.UUID) (*Recommendations, error) {
	interests, err := s.repo.GetUserInterests(ctx, userID)
	if err != nil {
		return nil, err
	}

	types := make([]EventType, 0, len(interests))
	for _, interest := range interests {
		if t := EventType(strings.ToLower(interest)); t.IsValid() {
			types = append(types, t)
		}
	}

	matched, err := s.repo.GetUpcomingByTypes(ctx, types, recommendationLimit)
	if err != nil {
		return nil, err
	}
	if len(matched) > 0 {
		return &Recommendations{Personalized: true, Events: toResponses(matched)}, nil
	}

	newest, err := s.repo.GetNewest(ctx, fallbackLimit)
	if err != nil {
		return nil, err
	}
	return &Recommendations{Events: toResponses(newest)}, nil
}

func toResponses(events []Event) []EventResponse {
	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = events[i].ToResponse()
	}
	return responses
}

// Restock adds tickets through the ledger so the journal stays complete
func (s *service) Restock(ctx context.Context, id uuid.UUID, req RestockRequest) (*EventResponse, error) {
	if req.Quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	if _, err := s.ledger.Credit(ctx, id, req.Quantity, inventory.Entry{
		Reason:    inventory.ReasonRestock,
		Reference: "restock:" + uuid.NewString(),
	}); err != nil {
		return nil, err
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := event.ToResponse()
	return &response, nil
}

func (s *service) GetMovements(ctx context.Context, id uuid.UUID, limit int) ([]inventory.Movement, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.Movements(ctx, id, limit)
}

func (s *service) InvalidateStock(ctx context.Context, eventID uuid.UUID, available int) {
	s.invalidate(ctx, &eventID)
}

// Cache helpers. A cache failure never fails the request.

func (s *service) getCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cacheService == nil {
		return false
	}
	err := s.cacheService.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
	}
	return err == nil
}

func (s *service) setCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, value, ttl); err != nil {
		s.log.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

func (s *service) invalidate(ctx context.Context, eventID *uuid.UUID) {
	if s.cacheService == nil {
		return
	}

	if eventID != nil {
		if err := s.cacheService.Delete(ctx, constants.BuildEventDetailKey(eventID.String())); err != nil {
			s.log.WarnContext(ctx, "Cache invalidation failed", "event_id", eventID.String(), "error", err)
		}
	}
	if err := s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_EVENT_LIST); err != nil {
		s.log.WarnContext(ctx, "Cache invalidation failed", "pattern", constants.PATTERN_INVALIDATE_EVENT_LIST, "error", err)
	}
}

// queryFingerprint keys a listing by its filters; pagination is part of the key separately
func queryFingerprint(query EventListQuery) string {
	query.Page, query.Limit = 0, 0
	raw, _ := json.Marshal(query)
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:8])
}
