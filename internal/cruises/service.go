package cruises

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// ExtraSelection is a guest-chosen add-on reference with a quantity.
type ExtraSelection struct {
	ExtraID  uuid.UUID
	Quantity int
}

// Service serves the cruise catalog and resolves guest selections against it.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// ServiceParams wires the cruise service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

func NewService(params ServiceParams) *Service {
	return &Service{repo: params.Repo, logger: params.Logger}
}

// List returns catalog sailings matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Cruise, error) {
	cruiseList, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cruises")
	}
	return cruiseList, nil
}

// Get fetches a sailing with its cabins and extras.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Cruise, error) {
	cruise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cruise not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching cruise")
	}
	return cruise, nil
}

// Create adds a sailing to the catalog.
func (s *Service) Create(ctx context.Context, cruise *models.Cruise) (*models.Cruise, error) {
	if cruise.ID == uuid.Nil {
		cruise.ID = uuid.New()
	}
	created, err := s.repo.Create(ctx, cruise)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cruise")
	}
	if s.logger != nil {
		ctx = s.logger.WithCruiseID(ctx, created.ID.String())
		s.logger.Info(ctx, "cruise created")
	}
	return created, nil
}

// CabinFor resolves the cabin category offered on the sailing, or a validation
// error naming the unavailable type.
func CabinFor(cruise *models.Cruise, cabinType enums.CabinType) (*models.CruiseCabin, error) {
	for i := range cruise.Cabins {
		if cruise.Cabins[i].CabinType == cabinType {
			return &cruise.Cabins[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("cabin type %q is not offered on this cruise", cabinType))
}

// ResolveExtras maps guest selections onto the sailing's catalog, freezing the
// current unit price into engine extras.
func ResolveExtras(cruise *models.Cruise, selections []ExtraSelection) ([]pricing.Extra, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	byID := make(map[uuid.UUID]models.CruiseExtra, len(cruise.Extras))
	for _, extra := range cruise.Extras {
		byID[extra.ID] = extra
	}

	resolved := make([]pricing.Extra, 0, len(selections))
	for _, selection := range selections {
		extra, ok := byID[selection.ExtraID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("extra %s is not offered on this cruise", selection.ExtraID))
		}
		if selection.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("extra %q requires a positive quantity", extra.Name))
		}
		resolved = append(resolved, pricing.Extra{
			ID:        extra.ID.String(),
			Name:      extra.Name,
			UnitPrice: extra.UnitPrice,
			Quantity:  selection.Quantity,
		})
	}
	return resolved, nil
}
