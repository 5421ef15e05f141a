package iam

import (
	"github.com/quatton/libra/pkg/lapi/services/authconfig"
	"github.com/quatton/libra/pkg/llog"
)

type IAMService struct {
	auth *authconfig.AuthService
	log  *llog.Logger
}

func NewIAMService(auth *authconfig.AuthService) *IAMService {
	return &IAMService{auth: auth, log: llog.NewDefault().With("component", "iam")}
}
