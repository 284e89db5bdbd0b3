package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "edubba/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockSK          = "LOCK"
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
	releaseTimeout  = 2 * time.Second
)

var errLockHeld = errors.New("lock already held")

// lockRecord is the item that marks a node as being revised. TTL lets
// DynamoDB reap locks whose owner died.
type lockRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	LockID    string `dynamodbav:"LockID"`
	Owner     string `dynamodbav:"Owner"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt"`
	TTL       int64  `dynamodbav:"TTL"`
}

// NodeLock implements ports.NodeLocker with conditional writes on the node
// table, so revisions from different Lambda instances never interleave.
type NodeLock struct {
	client    API
	tableName string
	owner     string
	ttl       time.Duration
	wait      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewNodeLock creates a lock manager owned by this process.
func NewNodeLock(client API, tableName string, logger *zap.Logger) *NodeLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeLock{
		client:    client,
		tableName: tableName,
		owner:     uuid.NewString(),
		ttl:       defaultLockTTL,
		wait:      defaultLockWait,
		now:       time.Now,
		logger:    logger,
	}
}

// Lock waits up to the configured wait for the node's lock. A node that
// stays locked past that reports a conflict.
func (l *NodeLock) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	deadline := l.now().Add(l.wait)
	retryInterval := 50 * time.Millisecond

	for {
		lockID, err := l.acquire(ctx, id)
		if err == nil {
			return func() { l.release(id, lockID) }, nil
		}
		if !errors.Is(err, errLockHeld) {
			return nil, err
		}
		if !l.now().Before(deadline) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("memory node %s is being revised", id))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (l *NodeLock) acquire(ctx context.Context, id uuid.UUID) (string, error) {
	now := l.now()
	expiresAt := now.Add(l.ttl)
	record := lockRecord{
		PK:        lockKey(id),
		SK:        lockSK,
		LockID:    fmt.Sprintf("%s_%d", l.owner, now.UnixNano()),
		Owner:     l.owner,
		ExpiresAt: expiresAt.UnixMilli(),
		TTL:       expiresAt.Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	free := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(free).Build()
	if err != nil {
		return "", fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(l.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Debug("Node lock held", zap.String("nodeID", id.String()))
			return "", errLockHeld
		}
		return "", pkgerrors.NewDatabaseError("acquire node lock", err)
	}

	l.logger.Debug("Node lock acquired",
		zap.String("nodeID", id.String()),
		zap.String("lockID", record.LockID),
	)
	return record.LockID, nil
}

// release deletes the lock item if this holder still owns it. It runs on
// its own context so a cancelled request still frees the node.
func (l *NodeLock) release(id uuid.UUID, lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("LockID").Equal(expression.Value(lockID))).
		Build()
	if err != nil {
		l.logger.Error("Failed to build release condition", zap.Error(err))
		return
	}

	_, err = l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockKey(id)},
			"SK": &types.AttributeValueMemberS{Value: lockSK},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Warn("Node lock expired before release", zap.String("nodeID", id.String()))
			return
		}
		l.logger.Error("Failed to release node lock",
			zap.String("nodeID", id.String()),
			zap.Error(err),
		)
	}
}

func lockKey(id uuid.UUID) string {
	return "LOCK#NODE#" + id.String()
}
