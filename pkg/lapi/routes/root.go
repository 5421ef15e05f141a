package routes

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/lapi/services"
)

// RegisterAPI mounts every route. A nil svcs registers the routes for
// OpenAPI generation only.
func RegisterAPI(api huma.API, svcs *services.Services) {
	if svcs == nil {
		svcs = services.EmptyServices()
	}
	if svcs.IAM != nil {
		api.UseMiddleware(svcs.IAM.Middleware())
	}

	RegisterHealth(api, svcs.Auth)
	RegisterAuth(api, svcs.Auth, svcs.IAM)
	RegisterUsers(api, svcs.Users, svcs.IAM)
	RegisterCatalog(api, svcs.Catalog, svcs.IAM)
	RegisterBorrowed(api, svcs.Borrowing, svcs.IAM)
}
