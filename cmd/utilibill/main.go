package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/smallbiznis/utilibill/internal/migration"
	"github.com/smallbiznis/utilibill/internal/observability"
	"github.com/smallbiznis/utilibill/internal/scheduler"
	"github.com/smallbiznis/utilibill/internal/server"
	"github.com/smallbiznis/utilibill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP API and every domain module behind it
		server.Module,

		// Periodic overdue sweep, off unless billing.yml enables it
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
