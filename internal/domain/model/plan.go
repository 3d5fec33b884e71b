package model

import (
	"time"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
)

type PlanType string

const (
	PlanTypeBookingOnly   PlanType = "BOOKING_ONLY"
	PlanTypeProductsOnly  PlanType = "PRODUCTS_ONLY"
	PlanTypeAllCategories PlanType = "ALL_CATEGORIES"
	PlanTypeFree          PlanType = "FREE"
)

// GrantsDiscount reports whether holders of this plan type may redeem discounts.
func (t PlanType) GrantsDiscount() bool {
	switch t {
	case PlanTypeBookingOnly, PlanTypeProductsOnly, PlanTypeAllCategories:
		return true
	default:
		return false
	}
}

// DiscountPlan is a subscriber's active discount entitlement as held by the
// plan registry. This service never mutates it.
type DiscountPlan struct {
	ID                 string
	OwnerID            string
	OwnerName          string
	OwnerChatID        *int64
	PinCode            string
	DiscountPercentage int
	PlanType           PlanType
	MaxUsagesPerMonth  int
	ExpiresAt          time.Time
	IsActive           bool
	CreatedAt          time.Time
}

func (p *DiscountPlan) IsZero() bool { return p == nil || p.ID == "" }

// ExpiredAt reports whether the plan is no longer valid at now.
// A plan whose expiry equals now is already expired.
func (p *DiscountPlan) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Owner returns the public owner view.
func (p *DiscountPlan) Owner() PlanOwner {
	return PlanOwner{ID: p.OwnerID, Name: p.OwnerName}
}

// NewDiscountPlan validates and constructs a plan. Used by seeding and tests;
// production plans are created by the subscription service.
func NewDiscountPlan(id, ownerID, pin string, percent int, planType PlanType, maxPerMonth int, expiresAt time.Time) (*DiscountPlan, error) {
	pin = NormalizePin(pin)
	if id == "" || ownerID == "" || !ValidPinFormat(pin) {
		return nil, domain.ErrInvalidArgument
	}
	if percent < 0 || percent > 100 || maxPerMonth <= 0 || expiresAt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &DiscountPlan{
		ID:                 id,
		OwnerID:            ownerID,
		PinCode:            pin,
		DiscountPercentage: percent,
		PlanType:           planType,
		MaxUsagesPerMonth:  maxPerMonth,
		ExpiresAt:          expiresAt,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}, nil
}
