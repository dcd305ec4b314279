package cruises

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/pkg/db/models"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	CruiseLine  string
	Destination string
	ActiveOnly  bool
}

// Repository exposes cruise catalog persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Cruise, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cruise, error)
	Create(ctx context.Context, cruise *models.Cruise) (*models.Cruise, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed cruise repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Cruise, error) {
	query := r.db.WithContext(ctx).
		Preload("Cabins").
		Preload("Extras").
		Order("departure_date asc")
	if filter.CruiseLine != "" {
		query = query.Where("cruise_line = ?", filter.CruiseLine)
	}
	if filter.Destination != "" {
		query = query.Where("destination = ?", filter.Destination)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var cruiseList []models.Cruise
	err := query.Find(&cruiseList).Error
	return cruiseList, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Cruise, error) {
	var cruise models.Cruise
	err := r.db.WithContext(ctx).
		Preload("Cabins").
		Preload("Extras").
		First(&cruise, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cruise, nil
}

func (r *repository) Create(ctx context.Context, cruise *models.Cruise) (*models.Cruise, error) {
	if err := r.db.WithContext(ctx).Create(cruise).Error; err != nil {
		return nil, err
	}
	return cruise, nil
}
