package tariff

import (
	"github.com/smallbiznis/utilibill/internal/tariff/repository"
	"github.com/smallbiznis/utilibill/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideUtilityTypes),
	fx.Provide(service.New),
	fx.Provide(service.NewResolver),
)
