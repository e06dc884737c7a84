package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sikap-pkl-api/internal/models"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
)

type competencyReader interface {
	ListForTrack(ctx context.Context, track string) ([]models.CompetencyTemplate, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CatalogService serves the competency catalog a report is scored against.
// The catalog is seed data and never mutated, so cache entries only expire.
type CatalogService struct {
	templates competencyReader
	cache     catalogCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService. A nil cache disables caching.
func NewCatalogService(templates competencyReader, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{templates: templates, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ListFor returns the personality and technical templates applicable to a
// track, ordered by display position. An empty catalog for a track is a
// valid result, not an error.
func (s *CatalogService) ListFor(ctx context.Context, track string) (*models.CompetencyCatalog, error) {
	key := fmt.Sprintf("catalog:track:%s", track)
	if s.cache != nil {
		var cached models.CompetencyCatalog
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("catalog cache read failed", zap.String("track", track), zap.Error(err))
		}
	}

	templates, err := s.templates.ListForTrack(ctx, track)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competency catalog")
	}

	catalog := &models.CompetencyCatalog{
		Track:       track,
		Personality: []models.CompetencyTemplate{},
		Technical:   []models.CompetencyTemplate{},
	}
	for _, tpl := range templates {
		switch tpl.Category {
		case models.CategoryPersonality:
			catalog.Personality = append(catalog.Personality, tpl)
		case models.CategoryTechnical:
			catalog.Technical = append(catalog.Technical, tpl)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, catalog, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.String("track", track), zap.Error(err))
		}
	}
	return catalog, nil
}
