package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/harborline/cruisebook-backend/api/responses"
	"github.com/harborline/cruisebook-backend/api/validators"
	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// CruiseCatalog is the catalog surface the public endpoints expose.
type CruiseCatalog interface {
	List(ctx context.Context, filter cruises.ListFilter) ([]models.Cruise, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Cruise, error)
}

// ListCruises returns active sailings, optionally filtered by line and
// destination.
func ListCruises(svc CruiseCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter := cruises.ListFilter{
			CruiseLine:  strings.TrimSpace(r.URL.Query().Get("cruise_line")),
			Destination: strings.TrimSpace(r.URL.Query().Get("destination")),
			ActiveOnly:  true,
		}

		cruiseList, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cruiseList)
	}
}

// GetCruise returns one sailing with its cabins and extras.
func GetCruise(svc CruiseCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "cruiseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cruise, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cruise)
	}
}
