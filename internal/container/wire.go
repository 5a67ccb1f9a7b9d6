//go:build wireinject
// +build wireinject

package container

import (
	"github.com/google/wire"

	"github.com/narwhalmedia/watchtrack/pkg/config"
	"github.com/narwhalmedia/watchtrack/pkg/logger"
)

// InitializeApp builds the watchtrack application graph.
func InitializeApp(cfg *config.Config, log *logger.ZapLogger) (*App, func(), error) {
	wire.Build(
		InfrastructureSet,
		WatchStatusSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
