package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/billing"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/smallbiznis/utilibill/internal/observability"
	"github.com/smallbiznis/utilibill/internal/ratelimit"
	"github.com/smallbiznis/utilibill/internal/scheduler"
	"github.com/smallbiznis/utilibill/pkg/db"
	"go.uber.org/fx"
)

// Standalone overdue sweeper. Run several replicas only with REDIS_ADDR set so
// the sweep lock is shared.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Only the sweeper is resolved out of billing
		billing.Module,
		ratelimit.Module,

		// No server module!
		scheduler.Module,
		fx.Decorate(func(cfg scheduler.Config) scheduler.Config {
			cfg.Enabled = true
			return cfg
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
