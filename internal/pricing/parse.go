package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RawInput is caller input before numeric conversion. An empty amount means
// the field was not provided.
type RawInput struct {
	ProductName         string
	CostPrice           string
	Taxes               string
	Shipping            string
	TargetMarginPercent string
}

// Parse converts raw text into an Input, defaulting absent taxes and shipping
// to zero. The parsed input is validated before it is returned.
func Parse(raw RawInput) (Input, error) {
	var errs ValidationErrors
	in := Input{ProductName: strings.TrimSpace(raw.ProductName)}

	var ok bool
	if in.CostPrice, ok = parseAmount(raw.CostPrice); !ok {
		errs.add(InvalidCost, "cost_price", missingOrNonNumeric(raw.CostPrice))
	}
	if in.Taxes, ok = parseOptionalAmount(raw.Taxes); !ok {
		errs.add(InvalidAdjustment, "taxes", "must be numeric")
	}
	if in.Shipping, ok = parseOptionalAmount(raw.Shipping); !ok {
		errs.add(InvalidAdjustment, "shipping", "must be numeric")
	}
	if in.TargetMarginPercent, ok = parseAmount(raw.TargetMarginPercent); !ok {
		errs.add(InvalidMargin, "target_margin_percent", missingOrNonNumeric(raw.TargetMarginPercent))
	}

	// Range checks only apply to fields that parsed.
	for _, fe := range validate(in) {
		if !hasField(errs, fe.Field) {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return in, sortByField(errs)
	}
	return in, nil
}

// Validate checks range rules on an already numeric input.
func Validate(in Input) error {
	return validate(in).orNil()
}

// Amounts are bounded so that arithmetic on them stays cheap.
const (
	maxAmountDigits   = 30
	maxAmountExponent = 18
)

const outOfRange = "is out of range"

func inBounds(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= -maxAmountExponent && exp <= maxAmountExponent && d.NumDigits() <= maxAmountDigits
}

func validate(in Input) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(in.ProductName) == "" {
		errs.add(InvalidProduct, "product_name", "is required")
	}
	switch {
	case !inBounds(in.CostPrice):
		errs.add(InvalidCost, "cost_price", outOfRange)
	case !in.CostPrice.IsPositive():
		errs.add(InvalidCost, "cost_price", "must be greater than 0")
	}
	switch {
	case !inBounds(in.Taxes):
		errs.add(InvalidAdjustment, "taxes", outOfRange)
	case in.Taxes.IsNegative():
		errs.add(InvalidAdjustment, "taxes", "must be greater than or equal to 0")
	}
	switch {
	case !inBounds(in.Shipping):
		errs.add(InvalidAdjustment, "shipping", outOfRange)
	case in.Shipping.IsNegative():
		errs.add(InvalidAdjustment, "shipping", "must be greater than or equal to 0")
	}
	switch {
	case !inBounds(in.TargetMarginPercent):
		errs.add(InvalidMargin, "target_margin_percent", outOfRange)
	case in.TargetMarginPercent.IsNegative() || in.TargetMarginPercent.GreaterThanOrEqual(hundred):
		errs.add(InvalidMargin, "target_margin_percent", "must be at least 0 and less than 100")
	}
	return errs
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func parseOptionalAmount(raw string) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, true
	}
	return parseAmount(raw)
}

func missingOrNonNumeric(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "is required"
	}
	return "must be numeric"
}

func hasField(errs ValidationErrors, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

var fieldOrder = map[string]int{
	"product_name":          0,
	"cost_price":            1,
	"taxes":                 2,
	"shipping":              3,
	"target_margin_percent": 4,
}

func sortByField(errs ValidationErrors) ValidationErrors {
	sort.SliceStable(errs, func(i, j int) bool {
		return fieldOrder[errs[i].Field] < fieldOrder[errs[j].Field]
	})
	return errs
}
