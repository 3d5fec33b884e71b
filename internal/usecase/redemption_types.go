package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// RedeemInput is the caller's request to apply a plan discount.
type RedeemInput struct {
	Pin            string                   `json:"pin" validate:"max=64"`
	OriginalAmount decimal.Decimal          `json:"originalAmount" validate:"-"`
	PlanOwnerHint  string                   `json:"planOwnerHint,omitempty" validate:"max=128"`
	ProviderID     string                   `json:"-" validate:"max=128"`
	Metadata       model.RedemptionMetadata `json:"metadata"`
}

// Verification is the receipt of a successful redemption.
type Verification struct {
	Code             string          `json:"code"`
	VerificationCode string          `json:"verificationCode"`
	RedemptionID     string          `json:"redemptionId"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	DiscountPercent  int             `json:"discountPercent"`
	FinalAmount      decimal.Decimal `json:"finalAmount"`
	Currency         string          `json:"currency"`
	PlanOwner        model.PlanOwner `json:"planOwner"`
	VerifiedAt       time.Time       `json:"verifiedAt"`
	Usage            model.Usage     `json:"usage"`
}

// RedeemResult is a tagged outcome: Success with Verification, or Error with
// a stable failure code. Usage is attached to CAP_EXCEEDED.
type RedeemResult struct {
	Success      bool
	Error        model.FailureCode
	Verification *Verification
	Usage        *model.Usage
}

func failed(code model.FailureCode) *RedeemResult {
	return &RedeemResult{Error: code}
}

// ValidateResult previews a PIN without writing to the ledger.
type ValidateResult struct {
	Valid           bool              `json:"valid"`
	Error           model.FailureCode `json:"error,omitempty"`
	PlanOwner       *model.PlanOwner  `json:"planOwner,omitempty"`
	PlanType        model.PlanType    `json:"planType,omitempty"`
	DiscountPercent int               `json:"discountPercent,omitempty"`
	ExpiresAt       *time.Time        `json:"expiresAt,omitempty"`
	Usage           *model.Usage      `json:"usage,omitempty"`
}

// Violation is one failed schema rule of a request.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError carries every violation found in a request. It matches
// domain.ErrInvalidArgument with errors.Is.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Rule))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidArgument }
