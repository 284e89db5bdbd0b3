package main

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"edubba/infrastructure/config"
	"edubba/infrastructure/di"
	"edubba/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// proxy adapts API Gateway v2 events onto the REST router. One proxy lives
// for the whole execution environment.
type proxy struct {
	adapter *chiadapter.ChiLambdaV2
	logger  *zap.Logger
	served  atomic.Bool
}

func newProxy(ctx context.Context) (*proxy, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg.IsLambda = true

	// The cleanup is dropped: the environment is frozen, never shut down.
	container, _, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize container: %w", err)
	}

	router, err := rest.NewRouter(container.CommandBus, container.QueryBus, container.Prometheus, cfg, container.Logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	mux, ok := router.Setup().(*chi.Mux)
	if !ok {
		return nil, fmt.Errorf("router handler is %T, want *chi.Mux", router.Setup())
	}

	return &proxy{
		adapter: chiadapter.NewV2(mux),
		logger:  container.Logger,
	}, nil
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := p.adapter.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["X-Cold-Start"] = fmt.Sprint(!p.served.Swap(true))
	if id := req.RequestContext.RequestID; id != "" {
		resp.Headers["X-Request-ID"] = id
	}

	if err != nil || resp.StatusCode >= 500 {
		p.logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
	}
	return resp, err
}

func main() {
	start := time.Now()
	p, err := newProxy(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	p.logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(start)))

	lambda.Start(p.handle)
}
