package promotions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/pkg/db/models"
)

// Repository exposes promotion persistence operations.
type Repository interface {
	List(ctx context.Context) ([]models.Promotion, error)
	ListActive(ctx context.Context) ([]models.Promotion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	IncrementUsesWithTx(tx *gorm.DB, ids []uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed promotion repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := r.db.WithContext(ctx).
		Order("priority asc, valid_from asc, id asc").
		Find(&promos).Error
	return promos, err
}

// ListActive returns promotions flagged active. Date-window filtering is left
// to the eligibility evaluator so an expired-but-selected deal still produces
// its precise rejection reason.
func (r *repository) ListActive(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority asc, valid_from asc, id asc").
		Find(&promos).Error
	return promos, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *repository) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *repository) IncrementUsesWithTx(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&models.Promotion{}).
		Where("id IN ?", ids).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1")).Error
}
