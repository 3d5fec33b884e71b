package model

import (
	"github.com/fetosat/daleelbalady-sub010/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxAmount is the largest original amount the ledger can store.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ValidAmount reports whether amount, rounded to cents, is positive and
// within MaxAmount.
func ValidAmount(amount decimal.Decimal) bool {
	amount = amount.Round(2)
	return amount.IsPositive() && !amount.GreaterThan(MaxAmount)
}

// Discount is the monetary outcome of applying a percentage to an amount.
// FinalAmount + DiscountAmount == OriginalAmount always holds exactly.
type Discount struct {
	OriginalAmount  decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalAmount     decimal.Decimal
	DiscountPercent int
}

// CalculateDiscount applies percent to original. The original amount is first
// rounded to cents and must pass ValidAmount; the discount is rounded half-up to cents and the final
// amount is derived from it by subtraction, never rounded on its own.
func CalculateDiscount(original decimal.Decimal, percent int) (Discount, error) {
	if !ValidAmount(original) {
		return Discount{}, domain.ErrInvalidAmount
	}
	original = original.Round(2)
	if percent < 0 || percent > 100 {
		return Discount{}, domain.ErrInvalidPercent
	}

	discount := original.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(2)
	if discount.GreaterThan(original) {
		discount = original
	}
	return Discount{
		OriginalAmount:  original,
		DiscountAmount:  discount,
		FinalAmount:     original.Sub(discount),
		DiscountPercent: percent,
	}, nil
}
