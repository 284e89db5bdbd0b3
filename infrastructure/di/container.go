package di

import (
	"edubba/application/commands/bus"
	"edubba/application/ports"
	querybus "edubba/application/queries/bus"
	domainconfig "edubba/domain/config"
	"edubba/infrastructure/config"
	"edubba/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	NodeRepo     ports.NodeRepository
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Prometheus   *observability.PrometheusMetrics
	Tracer       *observability.Tracer
}
