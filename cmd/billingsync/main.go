package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/audit"
	"github.com/mustafamuse/irshad-center-sub014/internal/billing"
	"github.com/mustafamuse/irshad-center-sub014/internal/clock"
	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	"github.com/mustafamuse/irshad-center-sub014/internal/enrollment"
	"github.com/mustafamuse/irshad-center-sub014/internal/events"
	"github.com/mustafamuse/irshad-center-sub014/internal/migration"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability"
	"github.com/mustafamuse/irshad-center-sub014/internal/observability/logger"
	"github.com/mustafamuse/irshad-center-sub014/internal/rates"
	"github.com/mustafamuse/irshad-center-sub014/internal/server"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook"
	"github.com/mustafamuse/irshad-center-sub014/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		enrollment.Module,
		billing.Module,
		rates.Module,
		events.Module,
		audit.Module,
		webhook.Module,

		fx.Invoke(func(gdb *gorm.DB, log *zap.Logger) error {
			return migration.Run(gdb, log)
		}),

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterRoutes()
		}),
		fx.Invoke(server.RunHTTP),
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
