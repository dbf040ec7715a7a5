package billing

import (
	"github.com/smallbiznis/utilibill/internal/billing/repository"
	"github.com/smallbiznis/utilibill/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewEngine),
	fx.Provide(service.NewSweeper),
)
