package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edubba/application/ports"
	"edubba/domain/config"
	"edubba/domain/core/entities"
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
	nodeEntityType = "MEMORY_NODE"
	metadataSK     = "METADATA"
)

// API is the subset of the DynamoDB client the repositories use.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// NodeRepository implements ports.NodeRepository on a single DynamoDB
// table. The full node is kept as a JSON document; the attributes used
// for filtering are projected next to it.
type NodeRepository struct {
	client    API
	tableName string
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewNodeRepository creates a new NodeRepository
func NewNodeRepository(client API, tableName string, cfg *config.DomainConfig, logger *zap.Logger) *NodeRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeRepository{
		client:    client,
		tableName: tableName,
		cfg:       cfg,
		logger:    logger,
	}
}

// nodeItem represents the DynamoDB item structure for a memory node
type nodeItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	NodeID         string   `dynamodbav:"NodeID"`
	NodeType       string   `dynamodbav:"NodeType"`
	Classification string   `dynamodbav:"Classification"`
	Domains        []string `dynamodbav:"Domains"`
	Dissonance     *float64 `dynamodbav:"Dissonance,omitempty"`
	Proficiency    *float64 `dynamodbav:"Proficiency,omitempty"`
	IntegrityHash  string   `dynamodbav:"IntegrityHash"`
	Document       string   `dynamodbav:"Document"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
}

func nodeKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NODE#%s", id)},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func toItem(node *entities.MemoryNode) (nodeItem, error) {
	doc, err := node.MarshalJSON()
	if err != nil {
		return nodeItem{}, err
	}

	domains := make([]string, 0, len(node.Domains()))
	for _, d := range node.Domains() {
		domains = append(domains, string(d))
	}

	item := nodeItem{
		PK:             fmt.Sprintf("NODE#%s", node.ID()),
		SK:             metadataSK,
		EntityType:     nodeEntityType,
		NodeID:         node.ID().String(),
		NodeType:       string(node.Type()),
		Classification: string(node.Classification()),
		Domains:        domains,
		IntegrityHash:  node.IntegrityHash(),
		Document:       string(doc),
		CreatedAt:      node.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if l := node.LatentContext(); l != nil {
		item.Dissonance = aws.Float64(l.DissonanceScore)
	}
	if m := node.Mastery(); m != nil {
		item.Proficiency = aws.Float64(m.UserProficiency)
	}
	return item, nil
}

// Save persists a node to DynamoDB
func (r *NodeRepository) Save(ctx context.Context, node *entities.MemoryNode) error {
	item, err := toItem(node)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal node", err)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal node", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save memory node to DynamoDB",
			zap.Error(err),
			zap.String("nodeID", item.NodeID),
		)
		return pkgerrors.NewDatabaseError("save node", err)
	}

	r.logger.Debug("Memory node saved",
		zap.String("nodeID", item.NodeID),
		zap.String("classification", item.Classification),
	)
	return nil
}

// FindByID retrieves a node by its ID
func (r *NodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MemoryNode, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       nodeKey(id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
	}

	return r.parseItem(result.Item)
}

// Delete removes a node. Deleting a missing node is a not-found error.
func (r *NodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       nodeKey(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("memory node %s", id))
		}
		return pkgerrors.NewDatabaseError("delete node", err)
	}

	r.logger.Debug("Memory node deleted", zap.String("nodeID", id.String()))
	return nil
}

// List scans the table with the filter pushed down as a filter expression.
// DynamoDB applies Limit before filtering, so the scan keeps going until the
// page is full or the table is exhausted. The cursor is the id of the last
// node returned. A document that fails revalidation fails the listing.
func (r *NodeRepository) List(ctx context.Context, filter ports.NodeFilter) (*ports.NodePage, error) {
	expr, err := expression.NewBuilder().WithFilter(filterCondition(filter)).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var startKey map[string]types.AttributeValue
	if filter.Cursor != "" {
		id, err := uuid.Parse(filter.Cursor)
		if err != nil {
			return nil, pkgerrors.NewValidationError("invalid cursor").WithDetail("field", "cursor")
		}
		startKey = nodeKey(id)
	}

	limit := filter.PageSize()
	page := &ports.NodePage{Nodes: []*entities.MemoryNode{}}

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(int32(limit)),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan nodes", err)
		}

		for _, item := range result.Items {
			node, err := r.parseItem(item)
			if err != nil {
				r.logger.Warn("Unreadable memory node in listing", zap.Error(err))
				return nil, err
			}
			if !filter.Matches(node) {
				continue
			}
			if len(page.Nodes) == limit {
				page.NextCursor = page.Nodes[limit-1].ID().String()
				return page, nil
			}
			page.Nodes = append(page.Nodes, node)
		}

		if len(result.LastEvaluatedKey) == 0 {
			return page, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

func filterCondition(filter ports.NodeFilter) expression.ConditionBuilder {
	cond := expression.Name("EntityType").Equal(expression.Value(nodeEntityType))
	if filter.MinDissonance != nil {
		cond = cond.And(expression.Name("Dissonance").GreaterThan(expression.Value(*filter.MinDissonance)))
	}
	if filter.MinProficiency != nil {
		cond = cond.And(expression.Name("Proficiency").GreaterThan(expression.Value(*filter.MinProficiency)))
	}
	if filter.Classification != "" {
		cond = cond.And(expression.Name("Classification").Equal(expression.Value(string(filter.Classification))))
	}
	if filter.Type != "" {
		cond = cond.And(expression.Name("NodeType").Equal(expression.Value(string(filter.Type))))
	}
	if filter.Domain != "" {
		cond = cond.And(expression.Contains(expression.Name("Domains"), string(filter.Domain)))
	}
	return cond
}

func (r *NodeRepository) parseItem(av map[string]types.AttributeValue) (*entities.MemoryNode, error) {
	var item nodeItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal node", err)
	}
	return entities.DecodeMemoryNode([]byte(item.Document), r.cfg)
}
