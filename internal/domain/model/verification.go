package model

// PinCheck is the outcome of verifying a PIN against the plan registry.
// Plan is set whenever a single plan was identified, even if it is unusable,
// so callers can attribute EXPIRED and INACTIVE attempts to an owner.
type PinCheck struct {
	Pin     string
	Plan    *DiscountPlan
	Failure FailureCode
}

func (c *PinCheck) Valid() bool { return c != nil && c.Failure == "" && c.Plan != nil }
