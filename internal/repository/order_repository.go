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

// OrderRepository stores orders as a metadata row plus one row per line item
// under the same partition key, written in a single transaction so an order
// never exists without its items. GSI1 indexes orders by user.
type OrderRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrderRepository(client *dynamodb.Client, tableName string) *OrderRepository {
	return &OrderRepository{
		client:    client,
		tableName: tableName,
	}
}

type orderItemRow struct {
	PK             string            `dynamodbav:"PK"`
	SK             string            `dynamodbav:"SK"`
	ProductID      string            `dynamodbav:"product_id"`
	ProductName    string            `dynamodbav:"product_name"`
	Quantity       int               `dynamodbav:"quantity"`
	UnitPrice      string            `dynamodbav:"unit_price"`
	LineTotal      string            `dynamodbav:"line_total"`
	Customizations map[string]string `dynamodbav:"customizations,omitempty"`
}

type orderMetadataRow struct {
	PK              string    `dynamodbav:"PK"`
	SK              string    `dynamodbav:"SK"`
	GSI1PK          string    `dynamodbav:"GSI1PK"`
	GSI1SK          string    `dynamodbav:"GSI1SK"`
	OrderID         string    `dynamodbav:"order_id"`
	UserID          string    `dynamodbav:"user_id"`
	Subtotal        string    `dynamodbav:"subtotal"`
	DeliveryFee     string    `dynamodbav:"delivery_fee"`
	Tax             string    `dynamodbav:"tax"`
	TotalAmount     string    `dynamodbav:"total_amount"`
	Status          string    `dynamodbav:"order_status"`
	DeliveryAddress string    `dynamodbav:"delivery_address,omitempty"`
	Phone           string    `dynamodbav:"phone,omitempty"`
	Notes           string    `dynamodbav:"notes,omitempty"`
	CreatedAt       time.Time `dynamodbav:"created_at"`
	UpdatedAt       time.Time `dynamodbav:"updated_at"`
}

// CreateOrder writes the order and all of its items atomically.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	pk := fmt.Sprintf("ORDER#%s", order.OrderID)

	meta := orderMetadataRow{
		PK:              pk,
		SK:              "METADATA",
		GSI1PK:          fmt.Sprintf("USER#%s", order.UserID),
		GSI1SK:          fmt.Sprintf("ORDER#%s", order.CreatedAt.Format("2006-01-02T15:04:05Z")),
		OrderID:         order.OrderID,
		UserID:          order.UserID,
		Subtotal:        order.Subtotal.String(),
		DeliveryFee:     order.DeliveryFee.String(),
		Tax:             order.Tax.String(),
		TotalAmount:     order.TotalAmount.String(),
		Status:          string(order.Status),
		DeliveryAddress: order.DeliveryAddress,
		Phone:           order.Phone,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	metaAV, err := attributevalue.MarshalMap(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	writes := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                metaAV,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}}

	for i, item := range order.Items {
		row := orderItemRow{
			PK:             pk,
			SK:             fmt.Sprintf("ITEM#%03d", i),
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice.String(),
			LineTotal:      item.LineTotal.String(),
			Customizations: item.Customizations,
		}
		av, err := attributevalue.MarshalMap(row)
		if err != nil {
			return fmt.Errorf("failed to marshal order item: %w", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      av,
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		return fmt.Errorf("failed to write order transaction: %w", err)
	}
	return nil
}

// GetOrder reads the metadata row and item rows for one order.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ORDER#%s", orderID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	order := &domain.Order{}
	for _, raw := range out.Items {
		sk := ""
		if v, ok := raw["SK"].(*types.AttributeValueMemberS); ok {
			sk = v.Value
		}
		if sk == "METADATA" {
			var meta orderMetadataRow
			if err := attributevalue.UnmarshalMap(raw, &meta); err != nil {
				return nil, err
			}
			if err := applyMetadata(order, meta); err != nil {
				return nil, err
			}
			continue
		}

		var row orderItemRow
		if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
			return nil, err
		}
		unitPrice, err := decimal.NewFromString(row.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid stored unit price %q: %w", row.UnitPrice, err)
		}
		lineTotal, err := decimal.NewFromString(row.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("invalid stored line total %q: %w", row.LineTotal, err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      row.ProductID,
			ProductName:    row.ProductName,
			Quantity:       row.Quantity,
			UnitPrice:      unitPrice,
			LineTotal:      lineTotal,
			Customizations: row.Customizations,
		})
	}
	if order.OrderID == "" {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func applyMetadata(order *domain.Order, meta orderMetadataRow) error {
	subtotal, err := decimal.NewFromString(meta.Subtotal)
	if err != nil {
		return fmt.Errorf("invalid stored subtotal %q: %w", meta.Subtotal, err)
	}
	deliveryFee, err := decimal.NewFromString(meta.DeliveryFee)
	if err != nil {
		return fmt.Errorf("invalid stored delivery fee %q: %w", meta.DeliveryFee, err)
	}
	tax, err := decimal.NewFromString(meta.Tax)
	if err != nil {
		return fmt.Errorf("invalid stored tax %q: %w", meta.Tax, err)
	}
	total, err := decimal.NewFromString(meta.TotalAmount)
	if err != nil {
		return fmt.Errorf("invalid stored total %q: %w", meta.TotalAmount, err)
	}

	order.OrderID = meta.OrderID
	order.UserID = meta.UserID
	order.Subtotal = subtotal
	order.DeliveryFee = deliveryFee
	order.Tax = tax
	order.TotalAmount = total
	order.Status = domain.OrderStatus(meta.Status)
	order.DeliveryAddress = meta.DeliveryAddress
	order.Phone = meta.Phone
	order.Notes = meta.Notes
	order.CreatedAt = meta.CreatedAt
	order.UpdatedAt = meta.UpdatedAt
	return nil
}
