package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// ListFilter narrows the booking listing.
type ListFilter struct {
	Status   enums.BookingStatus
	CruiseID uuid.UUID
}

// Repository exposes booking persistence.
type Repository interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error)
	List(ctx context.Context, filter ListFilter) ([]models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	UpdateWithTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed booking repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create persists the booking and its extras rows in one transaction through
// GORM's association handling.
func (r *repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Extras").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Extras").
		First(&booking, "stripe_payment_intent_id = ?", intentID).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Order("created_at desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CruiseID != uuid.Nil {
		query = query.Where("cruise_id = ?", filter.CruiseID)
	}

	var bookingList []models.Booking
	err := query.Find(&bookingList).Error
	return bookingList, err
}

func (r *repository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateWithTx persists the booking through the caller's transaction.
func (r *repository) UpdateWithTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error) {
	if err := tx.WithContext(ctx).Save(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}
