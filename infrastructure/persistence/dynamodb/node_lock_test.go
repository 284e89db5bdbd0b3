package dynamodb

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	pkgerrors "edubba/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lockTable honours the two conditions NodeLock writes: a put succeeds
// when no unexpired lock exists, a delete when the LockID matches.
type lockTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newLockTable() *lockTable {
	return &lockTable{items: map[string]map[string]types.AttributeValue{}}
}

func onlyValue(values map[string]types.AttributeValue) types.AttributeValue {
	for _, v := range values {
		return v
	}
	return nil
}

func number(v types.AttributeValue) int64 {
	n, _ := strconv.ParseInt(v.(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}

func (l *lockTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := pk(in.Item)
	if existing, ok := l.items[key]; ok {
		now := number(onlyValue(in.ExpressionAttributeValues))
		if number(existing["ExpiresAt"]) >= now {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	l.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (l *lockTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := pk(in.Key)
	existing, ok := l.items[key]
	want := onlyValue(in.ExpressionAttributeValues).(*types.AttributeValueMemberS).Value
	if !ok || existing["LockID"].(*types.AttributeValueMemberS).Value != want {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(l.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (l *lockTable) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, nil
}

func (l *lockTable) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func (l *lockTable) held(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[lockKey(id)]
	return ok
}

func newTestLock(table API, now func() time.Time) *NodeLock {
	lock := NewNodeLock(table, "edubba-test", zap.NewNop())
	lock.wait = 30 * time.Millisecond
	if now != nil {
		lock.now = now
	}
	return lock
}

func TestNodeLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second owner conflicts until release", func(t *testing.T) {
		table := newLockTable()
		id := uuid.New()
		first, second := newTestLock(table, nil), newTestLock(table, nil)

		release, err := first.Lock(ctx, id)
		require.NoError(t, err)
		assert.True(t, table.held(id))

		_, err = second.Lock(ctx, id)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))

		release()
		assert.False(t, table.held(id))

		release, err = second.Lock(ctx, id)
		require.NoError(t, err)
		release()
	})

	t.Run("expired lock is taken over", func(t *testing.T) {
		table := newLockTable()
		id := uuid.New()
		start := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

		stale := newTestLock(table, func() time.Time { return start })
		staleRelease, err := stale.Lock(ctx, id)
		require.NoError(t, err)

		later := newTestLock(table, func() time.Time { return start.Add(defaultLockTTL + time.Second) })
		release, err := later.Lock(ctx, id)
		require.NoError(t, err)

		// the stale holder must not free the new owner's lock
		staleRelease()
		assert.True(t, table.held(id))

		release()
		assert.False(t, table.held(id))
	})

	t.Run("cancelled wait", func(t *testing.T) {
		table := newLockTable()
		id := uuid.New()
		holder := newTestLock(table, nil)
		release, err := holder.Lock(ctx, id)
		require.NoError(t, err)
		defer release()

		waiter := newTestLock(table, nil)
		waiter.wait = time.Minute
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = waiter.Lock(cctx, id)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
