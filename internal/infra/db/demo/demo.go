// Package demo holds the sample owners and plans loaded by cmd/seed and by
// the in-memory store in dev mode.
package demo

import (
	"time"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

type owner struct {
	id, name, email string
}

var owners = []owner{
	{"00000000-0000-4000-8000-000000000001", "Mona Adel", "mona@example.com"},
	{"00000000-0000-4000-8000-000000000002", "Karim Fathy", "karim@example.com"},
	{"00000000-0000-4000-8000-000000000003", "Salma Hassan", "salma@example.com"},
	{"00000000-0000-4000-8000-000000000004", "Youssef Nabil", "youssef@example.com"},
}

type planSeed struct {
	id       string
	owner    int
	pin      string
	percent  int
	planType model.PlanType
	cap      int
	ttl      time.Duration
	active   bool
}

var plans = []planSeed{
	{"10000000-0000-4000-8000-000000000001", 0, "246813", 15, model.PlanTypeAllCategories, 15, 30 * 24 * time.Hour, true},
	{"10000000-0000-4000-8000-000000000002", 1, "135792", 10, model.PlanTypeBookingOnly, 5, 30 * 24 * time.Hour, true},
	{"10000000-0000-4000-8000-000000000003", 2, "864209", 20, model.PlanTypeProductsOnly, 10, -24 * time.Hour, true},
	{"10000000-0000-4000-8000-000000000004", 3, "975310", 0, model.PlanTypeFree, 1, 30 * 24 * time.Hour, true},
}

// Users returns the plan owners.
func Users(now time.Time) []*model.User {
	out := make([]*model.User, 0, len(owners))
	for _, o := range owners {
		out = append(out, &model.User{ID: o.id, Name: o.name, Email: o.email, RegisteredAt: now})
	}
	return out
}

// Plans returns one plan per owner: a 15% plan on PIN 246813 capped at 15 a
// month, a booking plan, an expired plan and a FREE plan.
func Plans(now time.Time) []*model.DiscountPlan {
	out := make([]*model.DiscountPlan, 0, len(plans))
	for _, s := range plans {
		o := owners[s.owner]
		out = append(out, &model.DiscountPlan{
			ID:                 s.id,
			OwnerID:            o.id,
			OwnerName:          o.name,
			PinCode:            s.pin,
			DiscountPercentage: s.percent,
			PlanType:           s.planType,
			MaxUsagesPerMonth:  s.cap,
			ExpiresAt:          now.Add(s.ttl),
			IsActive:           s.active,
			CreatedAt:          now,
		})
	}
	return out
}
