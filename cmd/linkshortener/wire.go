//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"link-shortener/internal/biz"
	"link-shortener/internal/conf"
	"link-shortener/internal/data"
	"link-shortener/internal/infra/eventbus"
	"link-shortener/internal/infra/telemetry"
	"link-shortener/internal/server"
	"link-shortener/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Shortener, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		eventbus.ProviderSet,
		telemetry.ProviderSet,
		wire.Bind(new(biz.EventPublisher), new(*eventbus.EventBus)),
		newApp,
	))
}
