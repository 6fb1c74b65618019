package analytics

import (
	"context"
	"fmt"

	"eventhub/internal/shared/constants"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 90
)

type Service interface {
	GetDashboardAnalytics(ctx context.Context, days int) (*SystemAnalytics, error)
	GetEventAnalytics(ctx context.Context, eventID uuid.UUID) (*EventAnalytics, error)
	GetPersonalAnalytics(ctx context.Context, userID uuid.UUID) (*PersonalAnalytics, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	log          *logger.Logger
}

// NewService builds the analytics service. cacheService may be nil.
func NewService(repo Repository, cacheService cache.Service, log *logger.Logger) Service {
	return &service{repo: repo, cacheService: cacheService, log: log.WithComponent("analytics")}
}

func (s *service) GetDashboardAnalytics(ctx context.Context, days int) (*SystemAnalytics, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	if days > MaxTrendDays {
		days = MaxTrendDays
	}

	if s.cacheService == nil {
		return s.repo.GetSystemAnalytics(ctx, days)
	}

	key := fmt.Sprintf("%s:%d", constants.CACHE_KEY_ANALYTICS_DASHBOARD, days)
	var dashboard SystemAnalytics
	if err := s.cacheService.Get(ctx, key, &dashboard); err == nil {
		return &dashboard, nil
	}

	result, err := s.repo.GetSystemAnalytics(ctx, days)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.Set(ctx, key, result, constants.TTL_ANALYTICS_DASHBOARD); err != nil {
		s.log.WarnContext(ctx, "failed to cache dashboard analytics", "error", err)
	}
	return result, nil
}

func (s *service) GetEventAnalytics(ctx context.Context, eventID uuid.UUID) (*EventAnalytics, error) {
	return s.repo.GetEventAnalytics(ctx, eventID)
}

func (s *service) GetPersonalAnalytics(ctx context.Context, userID uuid.UUID) (*PersonalAnalytics, error) {
	return s.repo.GetPersonalAnalytics(ctx, userID)
}
