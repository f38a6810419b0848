package sales

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore is an alternate order store backed by DynamoDB, selected
// with ORDER_STORE_BACKEND=dynamo. It covers the fulfillment write path;
// history and dashboard queries stay on the PostgreSQL store.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoOrder is the DynamoDB item structure.
type dynamoOrder struct {
	PK              string  `dynamodbav:"pk"`
	ID              int     `dynamodbav:"id"`
	UserID          int     `dynamodbav:"user_id"`
	ProductID       int     `dynamodbav:"product_id"`
	ProductName     string  `dynamodbav:"product_name"`
	Quantity        int     `dynamodbav:"quantity"`
	Status          string  `dynamodbav:"status"`
	SellerID        int     `dynamodbav:"seller_id"`
	TotalAmount     float64 `dynamodbav:"total_amount"`
	ShippingAddress string  `dynamodbav:"shipping_address"`
	CreatedAt       string  `dynamodbav:"created_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// InsertOrder allocates the next order id from a counter item, then puts
// the order. The put is conditional on the key not existing yet.
func (s *DynamoStore) InsertOrder(ctx context.Context, o *Order) error {
	id, err := s.nextOrderID(ctx)
	if err != nil {
		return fmt.Errorf("failed to allocate order id: %w", err)
	}

	o.ID = id
	o.CreatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(dynamoOrder{
		PK:              "ORDER#" + strconv.Itoa(id),
		ID:              id,
		UserID:          o.UserID,
		ProductID:       o.ProductID,
		ProductName:     o.ProductName,
		Quantity:        o.Quantity,
		Status:          o.Status,
		SellerID:        o.SellerID,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put order: %w", err)
	}
	return nil
}

// nextOrderID increments the shared counter item atomically.
func (s *DynamoStore) nextOrderID(ctx context.Context) (int, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "COUNTER#orders"},
		},
		UpdateExpression: aws.String("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}

	attr, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("unexpected counter attribute type")
	}
	return strconv.Atoi(attr.Value)
}
