package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RedemptionStatus string

const (
	RedemptionStatusSuccess RedemptionStatus = "SUCCESS"
	RedemptionStatusFailed  RedemptionStatus = "FAILED"
)

// FailureCode is the stable error code returned to callers of a redemption.
type FailureCode string

const (
	FailureNotFound       FailureCode = "NOT_FOUND"
	FailureExpired        FailureCode = "EXPIRED"
	FailureInactive       FailureCode = "INACTIVE"
	FailureCapExceeded    FailureCode = "CAP_EXCEEDED"
	FailureInvalidAmount  FailureCode = "InvalidAmount"
	FailureInvalidPercent FailureCode = "InvalidPercent"
)

// MonthYearLayout is the ledger bucket key format used for monthly caps.
const MonthYearLayout = "2006-01"

// MonthYear returns the YYYY-MM bucket of t in t's own location.
func MonthYear(t time.Time) string {
	return t.Format(MonthYearLayout)
}

// RedemptionMetadata is caller-supplied context stored with a redemption.
type RedemptionMetadata struct {
	CustomerName  string `json:"customerName,omitempty" validate:"max=256"`
	ReceiptNumber string `json:"receiptNumber,omitempty" validate:"max=256"`
	Location      string `json:"location,omitempty" validate:"max=256"`
	ServiceID     string `json:"serviceId,omitempty" validate:"max=256"`
	ProductID     string `json:"productId,omitempty" validate:"max=256"`
	ShopID        string `json:"shopId,omitempty" validate:"max=256"`
	OfferID       string `json:"offerId,omitempty" validate:"max=256"`
}

// Redemption is one ledger entry. Entries are append-only: created once per
// attempt, never updated or deleted.
type Redemption struct {
	ID               string
	PlanID           string
	PlanOwnerID      string
	VerificationCode string
	PinUsed          string
	VerifiedBy       string
	OriginalAmount   decimal.Decimal
	DiscountAmount   decimal.Decimal
	FinalAmount      decimal.Decimal
	DiscountPercent  int
	Currency         string
	MonthYear        string
	Status           RedemptionStatus
	FailureReason    FailureCode
	Metadata         RedemptionMetadata
	VerifiedAt       time.Time
}

func (r *Redemption) Succeeded() bool { return r != nil && r.Status == RedemptionStatusSuccess }

// Usage is the monthly cap position of a plan.
type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

func NewUsage(used, limit int) Usage {
	rem := limit - used
	if rem < 0 {
		rem = 0
	}
	return Usage{Used: used, Limit: limit, Remaining: rem}
}
