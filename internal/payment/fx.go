package payment

import (
	"github.com/smallbiznis/utilibill/internal/payment/repository"
	"github.com/smallbiznis/utilibill/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(service.NewProcessor),
	fx.Provide(service.NewQueryService),
)
