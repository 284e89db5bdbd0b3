package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"edubba/pkg/common"
	pkgerrors "edubba/pkg/errors"

	"go.uber.org/zap"
)

// Command is a request to change memory node state. Validate checks only
// what can be known without loading the node.
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware wraps every registered handler. The first middleware given to
// NewCommandBus runs outermost.
type Middleware func(next CommandHandler) CommandHandler

// ErrHandlerNotFound is returned for commands nobody registered.
var ErrHandlerNotFound = errors.New("command handler not found")

// CommandBus dispatches commands to their handlers
type CommandBus struct {
	handlers    map[reflect.Type]CommandHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewCommandBus creates a new command bus
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:    make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Register binds handler to the dynamic type of cmdType.
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Handle registers fn for commands of type C.
func Handle[C Command](b *CommandBus, fn func(context.Context, C) error) error {
	var zero C
	return b.Register(zero, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		return fn(ctx, cmd.(C))
	}))
}

// Send validates a command and dispatches it to its handler. Errors from
// the handler are returned unwrapped so callers can map them by type.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}
	return handler.Handle(ctx, cmd)
}

// LoggingMiddleware logs each command with the caller that issued it.
// Rejected nodes are expected traffic and log at info; anything else that
// fails logs at warn.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)

			fields := []zap.Field{
				zap.String("type", reflect.TypeOf(cmd).Name()),
				zap.Duration("duration", time.Since(start)),
			}
			if subject, ok := common.GetSubject(ctx); ok {
				fields = append(fields, zap.String("subject", subject))
			}
			switch {
			case err == nil:
				logger.Debug("Command succeeded", fields...)
			case pkgerrors.IsValidation(err):
				logger.Info("Command rejected", append(fields, zap.Error(err))...)
			default:
				logger.Warn("Command failed", append(fields, zap.Error(err))...)
			}
			return err
		})
	}
}

// TimeoutMiddleware bounds each command by d. Node locks and storage calls
// observe the deadline.
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next CommandHandler) CommandHandler {
		if d <= 0 {
			return next
		}
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Handle(ctx, cmd)
		})
	}
}

// Tracer opens a span around a unit of work. The returned function ends it.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, func(error))
}

// TracingMiddleware wraps each command in a span named after its type
func TracingMiddleware(tracer Tracer) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			ctx, end := tracer.Start(ctx, "command."+reflect.TypeOf(cmd).Name())
			err := next.Handle(ctx, cmd)
			end(err)
			return err
		})
	}
}
