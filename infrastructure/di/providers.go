package di

import (
	"context"
	"fmt"
	"strings"

	"edubba/application/commands/bus"
	commandhandlers "edubba/application/commands/handlers"
	"edubba/application/ports"
	querybus "edubba/application/queries/bus"
	queryhandlers "edubba/application/queries/handlers"
	"edubba/application/services"
	domainconfig "edubba/domain/config"
	"edubba/infrastructure/config"
	"edubba/infrastructure/messaging/eventbridge"
	"edubba/infrastructure/messaging/local"
	"edubba/infrastructure/persistence/cache"
	"edubba/infrastructure/persistence/dynamodb"
	"edubba/infrastructure/persistence/memory"
	"edubba/infrastructure/persistence/sqlite"
	"edubba/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return cfg.NewLogger()
}

// ProvideDomainConfig selects validation rules for the environment, adds
// the optional rules the deployment asked for and loads any extra
// embedding models.
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	return domainconfig.LoadDomainConfig(cfg.Environment).
		WithOptionalRules(cfg.StrictDigests, cfg.MaxEdgesPerNode).
		WithRegistryFile(cfg.EmbeddingRegistryFile)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideNodeRepository opens the configured storage backend and puts the
// read cache in front of it. DynamoDB is shared by many instances whose
// caches would drift apart, so it is never cached. The cleanup closes the
// backend.
func ProvideNodeRepository(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.NodeRepository, func(), error) {
	var (
		repo    ports.NodeRepository
		cleanup = func() {}
	)

	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		repo = dynamodb.NewNodeRepository(client, cfg.DynamoDBTable, domainCfg, logger)
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, domainCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		repo = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close SQLite store", zap.Error(err))
			}
		}
	case config.StorageMemory:
		repo = memory.NewNodeRepository(domainCfg)
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	cacheSize := cfg.CacheSize
	if cfg.StorageBackend == config.StorageDynamoDB {
		cacheSize = 0
	}
	if cacheSize > 0 {
		cached, err := cache.NewNodeRepository(repo, cacheSize)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		repo = cached
	}

	logger.Info("Node repository ready",
		zap.String("backend", cfg.StorageBackend),
		zap.Int("cacheSize", cacheSize),
	)
	return repo, cleanup, nil
}

// ProvideNodeLocker serializes node revisions. DynamoDB deployments may run
// many instances, so they lock in the table; other backends lock in memory.
func ProvideNodeLocker(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.NodeLocker {
	if cfg.StorageBackend == config.StorageDynamoDB {
		return dynamodb.NewNodeLock(client, cfg.DynamoDBTable, logger)
	}
	return memory.NewNodeLocks()
}

// usesEventBridge reports whether events leave the process. Local runs log
// them instead.
func usesEventBridge(cfg *config.Config) bool {
	return cfg.IsLambda || cfg.IsProduction()
}

// ProvideEventPublisher creates the event publisher
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if usesEventBridge(cfg) {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return local.NewLogPublisher(logger)
}

// ProvideDiodeSink creates the audit channel for restricted nodes
func ProvideDiodeSink(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.DiodeSink {
	if usesEventBridge(cfg) {
		return eventbridge.NewDiodeSink(client, cfg.AuditBusName, logger)
	}
	return local.NewLogDiodeSink(logger)
}

// ProvidePrometheusMetrics creates the collectors served on /metrics
func ProvidePrometheusMetrics(cfg *config.Config) *observability.PrometheusMetrics {
	return observability.NewPrometheusMetrics(strings.ToLower(cfg.MetricsNamespace))
}

// ProvideMetrics always records to Prometheus and adds CloudWatch when
// metrics are enabled.
func ProvideMetrics(
	cfg *config.Config,
	prom *observability.PrometheusMetrics,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) observability.Recorder {
	recorders := observability.Multi{prom}
	if cfg.EnableMetrics {
		namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
		recorders = append(recorders, observability.NewCloudWatchMetrics(namespace, client, logger))
	}
	return recorders
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("edubba", cfg.EnableTracing)
}

// ProvideNodeWriter creates the single write path for memory nodes
func ProvideNodeWriter(
	repo ports.NodeRepository,
	publisher ports.EventPublisher,
	sink ports.DiodeSink,
	metrics observability.Recorder,
	logger *zap.Logger,
) *services.NodeWriter {
	return services.NewNodeWriter(repo, publisher, sink, metrics, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	repo ports.NodeRepository,
	writer *services.NodeWriter,
	locker ports.NodeLocker,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TracingMiddleware(tracer),
		bus.TimeoutMiddleware(cfg.CommandTimeout),
	)

	err := commandhandlers.RegisterAll(commandBus,
		commandhandlers.NewCreateNodeHandler(repo, writer, locker, domainCfg, logger),
		commandhandlers.NewUpdateNodeHandler(repo, writer, locker, logger),
		commandhandlers.NewDeleteNodeHandler(repo, writer, locker, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	repo ports.NodeRepository,
	metrics observability.Recorder,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		querybus.MetricsMiddleware(metrics),
	)

	if err := queryhandlers.NewNodeQueryHandler(repo, logger).RegisterAll(queryBus); err != nil {
		return nil, fmt.Errorf("register query handlers: %w", err)
	}
	return queryBus, nil
}
