package actions

import (
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service"
)

// Actions structure
type Actions struct {
	cfg     config.Config
	service *service.Service
}

// NewActions constructor
func NewActions(cfg config.Config, srv *service.Service) *Actions {
	return &Actions{
		cfg:     cfg,
		service: srv,
	}
}
