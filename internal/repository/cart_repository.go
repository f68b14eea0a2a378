package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
)

// CartRepository persists cart lines so a customer's cart survives session
// restarts. One row per (user, product): PK=CART#<user>, SK=PRODUCT#<id>.
type CartRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewCartRepository(client *dynamodb.Client, tableName string) *CartRepository {
	return &CartRepository{
		client:    client,
		tableName: tableName,
	}
}

type cartLineRow struct {
	PK              string            `dynamodbav:"PK"`
	SK              string            `dynamodbav:"SK"`
	UserID          string            `dynamodbav:"user_id"`
	ProductID       string            `dynamodbav:"product_id"`
	ProductName     string            `dynamodbav:"product_name"`
	UnitPrice       string            `dynamodbav:"unit_price"`
	Quantity        int               `dynamodbav:"quantity"`
	SelectedOptions map[string]string `dynamodbav:"selected_options,omitempty"`
	UpdatedAt       time.Time         `dynamodbav:"updated_at"`
}

func cartKey(userID, productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CART#%s", userID)},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("PRODUCT#%s", productID)},
	}
}

func (row cartLineRow) toDomain() (*domain.CartLine, error) {
	unitPrice, err := decimal.NewFromString(row.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid stored unit price %q: %w", row.UnitPrice, err)
	}
	return &domain.CartLine{
		UserID:          row.UserID,
		ProductID:       row.ProductID,
		ProductName:     row.ProductName,
		UnitPrice:       unitPrice,
		Quantity:        row.Quantity,
		SelectedOptions: row.SelectedOptions,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func (r *CartRepository) ListLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("CART#%s", userID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(out.Items))
	for _, raw := range out.Items {
		var row cartLineRow
		if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
			return nil, err
		}
		line, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

func (r *CartRepository) GetLine(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            cartKey(userID, productID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrLineNotFound
	}

	var row cartLineRow
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *CartRepository) PutLine(ctx context.Context, line *domain.CartLine) error {
	row := cartLineRow{
		PK:              fmt.Sprintf("CART#%s", line.UserID),
		SK:              fmt.Sprintf("PRODUCT#%s", line.ProductID),
		UserID:          line.UserID,
		ProductID:       line.ProductID,
		ProductName:     line.ProductName,
		UnitPrice:       line.UnitPrice.String(),
		Quantity:        line.Quantity,
		SelectedOptions: line.SelectedOptions,
		UpdatedAt:       line.UpdatedAt,
	}
	av, err := attributevalue.MarshalMap(row)
	if err != nil {
		return fmt.Errorf("failed to marshal cart line: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteLine(ctx context.Context, userID, productID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       cartKey(userID, productID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// Clear removes every line in the user's cart. DynamoDB has no
// delete-by-partition, so the lines are queried and removed in batches.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	lines, err := r.ListLines(ctx, userID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	requests := make([]types.WriteRequest, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: cartKey(userID, line.ProductID),
			},
		})
	}

	// BatchWriteItem caps at 25 requests per call.
	for len(requests) > 0 {
		batch := requests
		if len(batch) > 25 {
			batch = batch[:25]
		}
		requests = requests[len(batch):]

		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: batch},
		})
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		if unprocessed := out.UnprocessedItems[r.tableName]; len(unprocessed) > 0 {
			requests = append(requests, unprocessed...)
		}
	}
	return nil
}
