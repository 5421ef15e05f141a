package lapi

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lapi/metrics"
	"github.com/quatton/libra/pkg/lapi/routes"
	"github.com/quatton/libra/pkg/lapi/services"
)

type Api struct {
	Api     huma.API
	Router  *chi.Mux
	Metrics *metrics.Metrics
}

func NewApi() *Api {
	m := metrics.New()

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)

	config := huma.DefaultConfig("libra API", "1.0.0")
	config.Info.Description = "Library catalog, accounts and loans."

	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Access token from /api/auth/token",
		},
	}

	api := humachi.New(router, config)
	router.Handle("/metrics", m.Handler())

	return &Api{Api: api, Router: router, Metrics: m}
}

// New wires the services over repos and store and mounts every route.
func New(cfg *config.EnvConfig, repos *db.Repos, store kv.Store) (*Api, *services.Services) {
	a := NewApi()
	svcs := services.NewServices(cfg, repos, store, a.Metrics)
	routes.RegisterAPI(a.Api, svcs)
	return a, svcs
}
