package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stagelink/stagelink/internal/clock"
	"github.com/stagelink/stagelink/internal/config"
	"github.com/stagelink/stagelink/internal/lock"
	"github.com/stagelink/stagelink/internal/migration"
	"github.com/stagelink/stagelink/internal/observability"
	"github.com/stagelink/stagelink/internal/server"
	"github.com/stagelink/stagelink/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		server.Module,
		migration.Module,
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
