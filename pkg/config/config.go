package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
	CatalogTableName string `envconfig:"CATALOG_TABLE_NAME" default:"catalog"`
	OrderTableName   string `envconfig:"ORDER_TABLE_NAME" default:"orders"`
	CartTableName    string `envconfig:"CART_TABLE_NAME" default:"cart_items"`
	KafkaBrokers     string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""` // DynamoDB Local endpoint

	// Pricing knobs. Parsed into decimals once at load time; the pricing
	// engine never reads the raw strings.
	DeliveryFeeRaw string `envconfig:"DELIVERY_FEE" default:"150.00"`
	TaxRateRaw     string `envconfig:"TAX_RATE" default:"0.08"`

	DeliveryFee decimal.Decimal `ignored:"true"`
	TaxRate     decimal.Decimal `ignored:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.DeliveryFee, err = decimal.NewFromString(cfg.DeliveryFeeRaw); err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE %q: %w", cfg.DeliveryFeeRaw, err)
	}
	if cfg.TaxRate, err = decimal.NewFromString(cfg.TaxRateRaw); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE %q: %w", cfg.TaxRateRaw, err)
	}
	if cfg.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("DELIVERY_FEE must not be negative, got %s", cfg.DeliveryFee)
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE must not be negative, got %s", cfg.TaxRate)
	}

	return &cfg, nil
}
