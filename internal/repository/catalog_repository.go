package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
)

// CatalogRepository stores products and categories in a single DynamoDB
// table. Products live under PK=PRODUCT#<id>, categories under
// PK=CATEGORY#<id>; GSI1 indexes products by category.
type CatalogRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewCatalogRepository(client *dynamodb.Client, tableName string) *CatalogRepository {
	return &CatalogRepository{
		client:    client,
		tableName: tableName,
	}
}

// productItem is the storage shape. Prices are stored as decimal strings so
// the table never sees binary floating point.
type productItem struct {
	PK                string              `dynamodbav:"PK"`
	SK                string              `dynamodbav:"SK"`
	GSI1PK            string              `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK            string              `dynamodbav:"GSI1SK,omitempty"`
	ProductID         string              `dynamodbav:"product_id"`
	Name              string              `dynamodbav:"name"`
	NameLower         string              `dynamodbav:"name_lower"`
	Description       string              `dynamodbav:"description,omitempty"`
	Price             string              `dynamodbav:"price"`
	CategoryID        string              `dynamodbav:"category_id,omitempty"`
	InStock           int                 `dynamodbav:"in_stock"`
	LowStockThreshold int                 `dynamodbav:"low_stock_threshold"`
	IsAvailable       bool                `dynamodbav:"is_available"`
	ImageURL          string              `dynamodbav:"image_url,omitempty"`
	Customizations    []customizationItem `dynamodbav:"customizations,omitempty"`
	CreatedAt         time.Time           `dynamodbav:"created_at"`
	UpdatedAt         time.Time           `dynamodbav:"updated_at"`
}

type customizationItem struct {
	Name    string       `dynamodbav:"name"`
	Options []optionItem `dynamodbav:"options"`
}

type optionItem struct {
	Label      string `dynamodbav:"label"`
	PriceDelta string `dynamodbav:"price_delta,omitempty"`
}

func productKey(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("PRODUCT#%s", productID)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func toProductItem(p *domain.Product) productItem {
	item := productItem{
		PK:                fmt.Sprintf("PRODUCT#%s", p.ProductID),
		SK:                "METADATA",
		ProductID:         p.ProductID,
		Name:              p.Name,
		NameLower:         strings.ToLower(p.Name),
		Description:       p.Description,
		Price:             p.Price.String(),
		CategoryID:        p.CategoryID,
		InStock:           p.InStock,
		LowStockThreshold: p.LowStockThreshold,
		IsAvailable:       p.IsAvailable,
		ImageURL:          p.ImageURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.CategoryID != "" {
		item.GSI1PK = fmt.Sprintf("CATEGORY#%s", p.CategoryID)
		item.GSI1SK = fmt.Sprintf("PRODUCT#%s", p.ProductID)
	}
	for _, g := range p.Customizations {
		gi := customizationItem{Name: g.Name}
		for _, o := range g.Options {
			gi.Options = append(gi.Options, optionItem{
				Label:      o.Label,
				PriceDelta: o.PriceDelta.String(),
			})
		}
		item.Customizations = append(item.Customizations, gi)
	}
	return item
}

func (i productItem) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(i.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", i.Price, err)
	}
	p := &domain.Product{
		ProductID:         i.ProductID,
		Name:              i.Name,
		Description:       i.Description,
		Price:             price,
		CategoryID:        i.CategoryID,
		InStock:           i.InStock,
		LowStockThreshold: i.LowStockThreshold,
		IsAvailable:       i.IsAvailable,
		ImageURL:          i.ImageURL,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
	for _, gi := range i.Customizations {
		g := domain.CustomizationGroup{Name: gi.Name}
		for _, oi := range gi.Options {
			opt := domain.CustomizationOption{Label: oi.Label}
			if oi.PriceDelta != "" {
				d, err := decimal.NewFromString(oi.PriceDelta)
				if err != nil {
					return nil, fmt.Errorf("invalid stored price delta %q: %w", oi.PriceDelta, err)
				}
				opt.PriceDelta = d
			} else {
				// Legacy row: the delta was encoded in the label text.
				opt.PriceDelta = pricing.ParseLabelDelta(oi.Label)
			}
			g.Options = append(g.Options, opt)
		}
		p.Customizations = append(p.Customizations, g)
	}
	return p, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(toProductItem(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put product: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            productKey(productID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return item.toDomain()
}

// ListProducts scans product metadata rows, optionally narrowed by category
// and a case-insensitive name substring. The catalog is small; a filtered
// scan costs less than maintaining a search index.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	exprValues := map[string]types.AttributeValue{
		":prefix": &types.AttributeValueMemberS{Value: "PRODUCT#"},
		":sk":     &types.AttributeValueMemberS{Value: "METADATA"},
	}
	filterExpr := "begins_with(PK, :prefix) AND SK = :sk"
	if filter.CategoryID != "" {
		filterExpr += " AND category_id = :category"
		exprValues[":category"] = &types.AttributeValueMemberS{Value: filter.CategoryID}
	}
	if filter.SearchTerm != "" {
		filterExpr += " AND contains(name_lower, :search)"
		exprValues[":search"] = &types.AttributeValueMemberS{Value: strings.ToLower(filter.SearchTerm)}
	}

	var products []domain.Product
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeValues: exprValues,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		for _, raw := range page.Items {
			var item productItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, err
			}
			p, err := item.toDomain()
			if err != nil {
				return nil, err
			}
			products = append(products, *p)
		}
	}
	return products, nil
}

// SetStock overwrites the stock counter, as the inventory dashboard does.
// Returns the updated product.
func (r *CatalogRepository) SetStock(ctx context.Context, productID string, newStock int) (*domain.Product, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET in_stock = :stock, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":stock": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newStock)},
			":now":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, err
	}
	return item.toDomain()
}

// DecrementStock atomically subtracts quantity from the stock counter,
// succeeding only if enough stock remains. A concurrent depletion surfaces as
// a StockConflictError carrying the quantity actually available.
func (r *CatalogRepository) DecrementStock(ctx context.Context, productID string, quantity int) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET in_stock = in_stock - :qty, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK) AND in_stock >= :qty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			product, readErr := r.GetProduct(ctx, productID)
			if readErr != nil {
				return 0, readErr
			}
			return 0, &domain.StockConflictError{Conflicts: []domain.StockConflict{{
				ProductID: productID,
				Requested: quantity,
				Available: product.InStock,
			}}}
		}
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, err
	}
	return item.InStock, nil
}

// IncrementStock restores stock, used when a checkout rolls back after a
// partial decrement.
func (r *CatalogRepository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 productKey(productID),
		UpdateExpression:    aws.String("SET in_stock = in_stock + :qty, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":qty": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

type categoryItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	CategoryID string `dynamodbav:"category_id"`
	Name       string `dynamodbav:"name"`
	SortOrder  int    `dynamodbav:"sort_order"`
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix) AND SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "CATEGORY#"},
			":sk":     &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(out.Items))
	for _, raw := range out.Items {
		var item categoryItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		categories = append(categories, domain.Category{
			CategoryID: item.CategoryID,
			Name:       item.Name,
			SortOrder:  item.SortOrder,
		})
	}
	return categories, nil
}
