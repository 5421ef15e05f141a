package services

import (
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lapi/metrics"
	"github.com/quatton/libra/pkg/lapi/services/authconfig"
	"github.com/quatton/libra/pkg/lapi/services/borrowing"
	"github.com/quatton/libra/pkg/lapi/services/catalog"
	"github.com/quatton/libra/pkg/lapi/services/iam"
	"github.com/quatton/libra/pkg/lapi/services/users"
)

type Services struct {
	Auth      *authconfig.AuthService
	IAM       *iam.IAMService
	Catalog   *catalog.Catalog
	Users     *users.UsersService
	Borrowing *borrowing.BorrowingService
}

func NewServices(cfg *config.EnvConfig, repos *db.Repos, kvStore kv.Store, m *metrics.Metrics) *Services {
	authSvc := authconfig.NewAuthService(cfg, repos.Users, kvStore, m)
	iamSvc := iam.NewIAMService(authSvc)

	return &Services{
		Auth:      authSvc,
		IAM:       iamSvc,
		Catalog:   catalog.New(repos),
		Users:     users.NewUsersService(repos.Users, authSvc),
		Borrowing: borrowing.NewBorrowingService(repos),
	}
}

// EmptyServices is enough to register routes for OpenAPI generation; no
// handler may run against it.
func EmptyServices() *Services {
	return &Services{
		Auth:      nil,
		IAM:       nil,
		Catalog:   &catalog.Catalog{},
		Users:     nil,
		Borrowing: nil,
	}
}
