package pricing

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ErrInvalidCostPrice is returned when the cost price is not a positive finite number.
var ErrInvalidCostPrice = errors.New("cost price must be a positive number")

// SellingPrice returns cost * (1 + margin/100).
// The margin is a percent and may be negative or zero.
func SellingPrice(cost, margin float64) (float64, error) {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost <= 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidCostPrice, cost)
	}

	return cost * (1 + margin/100), nil
}

// Calculator wraps SellingPrice with debug logging.
type Calculator struct {
	logger *zap.Logger
}

func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Calculator{logger: logger}
}

func (c *Calculator) SellingPrice(cost, margin float64) (float64, error) {
	price, err := SellingPrice(cost, margin)
	if err != nil {
		c.logger.Debug("selling price rejected",
			zap.Float64("cost_price", cost),
			zap.Float64("margin_percent", margin),
			zap.Error(err),
		)
		return 0, err
	}

	c.logger.Debug("calculated selling price",
		zap.Float64("cost_price", cost),
		zap.Float64("margin_percent", margin),
		zap.Float64("selling_price", price),
	)

	return price, nil
}
