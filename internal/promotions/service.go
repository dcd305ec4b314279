package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
	"github.com/harborline/cruisebook-backend/pkg/redis"
)

const activeRulesCacheScope = "promotions"

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the promotion catalog and serves the active rule set to the
// pricing flow through a read-through cache.
type Service struct {
	repo     Repository
	tx       TxRunner
	cache    redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// ServiceParams wires the promotion service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       TxRunner
	Cache    redis.Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

func NewService(params ServiceParams) *Service {
	return &Service{
		repo:     params.Repo,
		tx:       params.Tx,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		logger:   params.Logger,
	}
}

// List returns every promotion, active or not, for the admin surface.
func (s *Service) List(ctx context.Context) ([]models.Promotion, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing promotions")
	}
	return promos, nil
}

// Get fetches a single promotion by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching promotion")
	}
	return promo, nil
}

// Create validates the input against the engine's rule invariants before
// persisting, so the catalog can never hold a rule the evaluator would choke
// on.
func (s *Service) Create(ctx context.Context, input UpsertInput) (*models.Promotion, error) {
	promo := &models.Promotion{ID: uuid.New()}
	input.apply(promo)

	if err := RuleFromModel(*promo).Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion").
			WithDetails(err.Error())
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating promotion")
	}

	s.invalidateActiveRules(ctx)
	if s.logger != nil {
		ctx = s.logger.WithPromotionID(ctx, created.ID.String())
		s.logger.Info(ctx, "promotion created")
	}
	return created, nil
}

// Update replaces the mutable fields of an existing promotion.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Promotion, error) {
	promo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	input.apply(promo)

	if err := RuleFromModel(*promo).Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion").
			WithDetails(err.Error())
	}

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating promotion")
	}

	s.invalidateActiveRules(ctx)
	if s.logger != nil {
		ctx = s.logger.WithPromotionID(ctx, updated.ID.String())
		s.logger.Info(ctx, "promotion updated")
	}
	return updated, nil
}

// Deactivate soft-disables a promotion without touching its history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !promo.IsActive {
		return promo, nil
	}
	promo.IsActive = false

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating promotion")
	}

	s.invalidateActiveRules(ctx)
	if s.logger != nil {
		ctx = s.logger.WithPromotionID(ctx, updated.ID.String())
		s.logger.Info(ctx, "promotion deactivated")
	}
	return updated, nil
}

// ActiveRules returns the engine-ready rule set for quoting. Cache misses and
// cache failures both fall through to the repository; a flaky cache never
// blocks pricing.
func (s *Service) ActiveRules(ctx context.Context) ([]pricing.PromotionRule, error) {
	if rules, ok := s.cachedActiveRules(ctx); ok {
		return rules, nil
	}

	promos, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active promotions")
	}
	rules := RulesFromModels(promos)
	s.storeActiveRules(ctx, rules)
	return rules, nil
}

// RuleByID fetches one promotion as an engine rule regardless of its active
// flag, so a guest-selected deal that has been disabled still gets a precise
// rejection instead of vanishing.
func (s *Service) RuleByID(ctx context.Context, id uuid.UUID) (*pricing.PromotionRule, error) {
	promo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rule := RuleFromModel(*promo)
	return &rule, nil
}

// RecordRedemptions bumps usage counters for the given promotions inside a
// transaction of its own. Called only after payment confirmation.
func (s *Service) RecordRedemptions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.RecordRedemptionsWithTx(ctx, tx, ids)
	})
}

// RecordRedemptionsWithTx bumps usage counters inside the caller's
// transaction, so a booking confirmation and its redemptions commit or roll
// back together.
func (s *Service) RecordRedemptionsWithTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.repo.IncrementUsesWithTx(tx, ids); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording promotion redemptions")
	}
	return nil
}

func (s *Service) cachedActiveRules(ctx context.Context) ([]pricing.PromotionRule, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, s.activeRulesKey())
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) && s.logger != nil {
			s.logger.Warn(ctx, fmt.Sprintf("promotion cache read failed: %v", err))
		}
		return nil, false
	}
	var rules []pricing.PromotionRule
	if err := json.Unmarshal([]byte(payload), &rules); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, fmt.Sprintf("promotion cache payload corrupt: %v", err))
		}
		return nil, false
	}
	return rules, true
}

func (s *Service) storeActiveRules(ctx context.Context, rules []pricing.PromotionRule) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(rules)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.activeRulesKey(), string(payload), s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn(ctx, fmt.Sprintf("promotion cache write failed: %v", err))
	}
}

func (s *Service) invalidateActiveRules(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.activeRulesKey()); err != nil && s.logger != nil {
		s.logger.Warn(ctx, fmt.Sprintf("promotion cache invalidation failed: %v", err))
	}
}

func (s *Service) activeRulesKey() string {
	return s.cache.CacheKey(activeRulesCacheScope, "active")
}
