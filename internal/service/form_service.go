package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mfl-intake/internal/cache"
	"github.com/spec-kit/mfl-intake/internal/config"
	"github.com/spec-kit/mfl-intake/internal/domain"
)

const formFieldsCacheKey = "form_fields"

// FormService describes the intake form, resolving configured fields against
// the middleware's field catalog.
type FormService struct {
	middleware MiddlewareAPI
	cache      cache.Provider
	ttl        time.Duration
	zendesk    config.ZendeskConfig
	logger     *zap.Logger
}

// NewFormService constructs the service. A nil cache disables caching.
func NewFormService(middleware MiddlewareAPI, provider cache.Provider, ttl time.Duration, zendesk config.ZendeskConfig, logger *zap.Logger) *FormService {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{middleware: middleware, cache: provider, ttl: ttl, zendesk: zendesk, logger: logger.Named("form")}
}

// Fields returns the form in display order.
func (s *FormService) Fields(ctx context.Context) ([]domain.FieldDescriptor, error) {
	meta, err := s.metadata(ctx)
	if err != nil {
		return nil, err
	}

	configurable := make(map[string]domain.FieldDescriptor, len(domain.ConfigurableFields))
	for _, field := range domain.ConfigurableFields {
		configurable[field.Name] = domain.ResolveField(field, s.zendesk.FieldIDFor(field.Name), *meta)
	}

	return []domain.FieldDescriptor{
		domain.FreeTextField("subject", "Subject", true),
		domain.FreeTextField("description", "Description", true),
		domain.FreeTextField("tags", "Tags", false),
		configurable["client"],
		domain.FreeTextField("phone_number", "Phone Number", false),
		configurable["sources"],
		configurable["attack_vector"],
		configurable["call_to_action"],
		configurable["resolution"],
		configurable["escalate_to"],
	}, nil
}

// Refresh drops the cached metadata and rebuilds the form from the middleware.
func (s *FormService) Refresh(ctx context.Context) ([]domain.FieldDescriptor, error) {
	if err := s.cache.Del(ctx, formFieldsCacheKey); err != nil {
		s.logger.Warn("form metadata cache delete failed", zap.Error(err))
	}
	return s.Fields(ctx)
}

func (s *FormService) metadata(ctx context.Context) (*domain.FormMetadata, error) {
	raw, err := s.cache.Get(ctx, formFieldsCacheKey)
	switch {
	case err == nil:
		var meta domain.FormMetadata
		if jsonErr := json.Unmarshal(raw, &meta); jsonErr == nil {
			return &meta, nil
		}
		s.logger.Warn("discarding corrupt form metadata cache entry")
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("form metadata cache read failed", zap.Error(err))
	}

	meta, err := s.middleware.FormFields(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(meta); err == nil {
		if err := s.cache.Set(ctx, formFieldsCacheKey, data, s.ttl); err != nil {
			s.logger.Warn("form metadata cache write failed", zap.Error(err))
		}
	}
	return meta, nil
}
