package report

import (
	"github.com/smallbiznis/utilibill/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("report",
	pdf.Module,
	fx.Provide(NewAssembler),
)
