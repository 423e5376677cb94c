package logger

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
)

var Module = fx.Module(
	"logger",
	fx.Provide(NewLogger),
)

func NewLogger(cfg *config.LoggingConfig, svc *config.ServiceConfig) zerolog.Logger {
	return New(cfg.Level, svc.Name)
}
