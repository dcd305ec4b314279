package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/harborline/cruisebook-backend/api/responses"
	"github.com/harborline/cruisebook-backend/pkg/config"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

const envHeader = "X-Cruisebook-Env"

// Pinger is any dependency the readiness check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes every wired dependency and aggregates the failures, so
// one readiness response names everything that is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set(envHeader, cfg.App.Env)

		var errs []error
		failed := make([]string, 0)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				errs = append(errs, err)
				failed = append(failed, name)
			}
		}

		if combined := multierr.Combine(errs...); combined != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "dependencies unavailable").
					WithDetails(map[string]any{"failed": failed}))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
