package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countQuery struct{ limit int }

func (q countQuery) Validate() error {
	if q.limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

type observed struct {
	queryType string
	err       error
}

type fakeMetrics struct{ seen []observed }

func (m *fakeMetrics) ObserveQuery(queryType string, _ time.Duration, err error) {
	m.seen = append(m.seen, observed{queryType, err})
}

func TestQueryBus_TypedAsk(t *testing.T) {
	metrics := &fakeMetrics{}
	b := NewQueryBus(MetricsMiddleware(metrics))
	require.NoError(t, Handle(b, func(_ context.Context, q countQuery) (int, error) {
		return q.limit * 2, nil
	}))

	n, err := Ask[int](context.Background(), b, countQuery{limit: 21})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Ask[string](context.Background(), b, countQuery{limit: 1})
	assert.ErrorIs(t, err, ErrUnexpectedResult)

	// invalid queries never reach the handler or its metrics
	_, err = Ask[int](context.Background(), b, countQuery{limit: -1})
	assert.Error(t, err)

	require.Len(t, metrics.seen, 2)
	assert.Equal(t, "countQuery", metrics.seen[0].queryType)
}

func TestQueryBus_Unregistered(t *testing.T) {
	_, err := NewQueryBus().Ask(context.Background(), countQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestQueryBus_DuplicateRegistration(t *testing.T) {
	b := NewQueryBus()
	fn := func(context.Context, countQuery) (int, error) { return 0, nil }

	require.NoError(t, Handle(b, fn))
	assert.Error(t, Handle(b, fn))
}
