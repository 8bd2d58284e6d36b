package controllers

import (
	"net/http"

	"github.com/hoangdh1/eCommerce/api/middleware"
	"github.com/hoangdh1/eCommerce/api/responses"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/types"
)

// requireActor writes a 401 and reports false when the request carries no identity.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (types.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
		return types.Actor{}, false
	}
	return actor, true
}
