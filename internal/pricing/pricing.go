package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input represents the cost inputs and target margin of one product.
type Input struct {
	ProductName         string
	CostPrice           decimal.Decimal
	Taxes               decimal.Decimal
	Shipping            decimal.Decimal
	TargetMarginPercent decimal.Decimal
}

// TotalCost returns cost price plus taxes plus shipping.
func (in Input) TotalCost() decimal.Decimal {
	return in.CostPrice.Add(in.Taxes).Add(in.Shipping)
}

// Result contains the derived sale price and profit figures.
// Values keep full precision; rounding is left to the presentation layer.
type Result struct {
	SalePrice   decimal.Decimal
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
}

// Calculate derives the sale price that yields the target margin over the
// sale price, along with gross and net profit.
func Calculate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	totalCost := in.TotalCost()
	// 100 - m is exact and nonzero for every margin below 100.
	salePrice := totalCost.Mul(hundred).Div(hundred.Sub(in.TargetMarginPercent))

	return Result{
		SalePrice:   salePrice,
		GrossProfit: salePrice.Sub(in.CostPrice),
		NetProfit:   salePrice.Sub(totalCost),
	}, nil
}

// CalculateSale parses raw caller input and calculates it in one step.
func CalculateSale(raw RawInput) (Input, Result, error) {
	in, err := Parse(raw)
	if err != nil {
		return Input{}, Result{}, err
	}

	res, err := Calculate(in)
	if err != nil {
		return in, Result{}, err
	}
	return in, res, nil
}
