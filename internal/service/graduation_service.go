package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

const (
	graduationFlagsCacheKey = "graduation:flags"
	graduationCachePattern  = "graduation:*"
)

type graduationFlagStore interface {
	List(ctx context.Context) ([]models.GraduationFlag, error)
	SetTranscriptRequested(ctx context.Context, studentID string, requested bool) error
}

// GraduationService exposes the graduation flag views.
type GraduationService struct {
	flags  graduationFlagStore
	cache  *CacheService
	logger *zap.Logger
}

// NewGraduationService constructs GraduationService.
func NewGraduationService(flags graduationFlagStore, cache *CacheService, logger *zap.Logger) *GraduationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraduationService{flags: flags, cache: cache, logger: logger}
}

// List returns all graduation flags, served from cache when possible.
func (s *GraduationService) List(ctx context.Context) ([]models.GraduationFlag, error) {
	var cached []models.GraduationFlag
	if hit, err := s.cache.Get(ctx, graduationFlagsCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	flags, err := s.flags.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list graduation flags")
	}

	if err := s.cache.Set(ctx, graduationFlagsCacheKey, flags, 0); err != nil {
		s.logger.Warn("failed to cache graduation flags", zap.Error(err))
	}
	return flags, nil
}

// SetTranscriptRequested toggles the transcript-requested marker on an
// existing flag.
func (s *GraduationService) SetTranscriptRequested(ctx context.Context, studentID string, requested bool) error {
	if err := s.flags.SetTranscriptRequested(ctx, studentID, requested); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "graduation flag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update transcript request")
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, graduationCachePattern); err != nil {
			s.logger.Warn("failed to invalidate graduation cache", zap.Error(err))
		}
	}
	return nil
}
