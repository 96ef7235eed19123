package services

import "math"

// Sign-up fees, in cents.
const (
	SubscriptionFeeCents int64 = 2000
	RentFeeCents         int64 = 5000

	vipRentDiscountRate = 0.30
)

// Benefit codes surfaced to the UI, in the order the rules fire.
const (
	BenefitVipFreeSub      = "vip-free-sub"
	BenefitVipRentDiscount = "vip-rent-discount"
)

// PriceBreakdown is the fee quote for one sign-up.
type PriceBreakdown struct {
	SubscriptionCents int64    `json:"subscription_cents"`
	RentCents         int64    `json:"rent_cents"`
	DiscountCents     int64    `json:"discount_cents"`
	TotalCents        int64    `json:"total_cents"`
	Benefits          []string `json:"benefits"`
}

// ComputePriceBreakdown applies the fee rules in precedence order:
// renting always waives the separate subscription fee (VIP or not), VIP
// waives it otherwise, and VIP renters get a 30% rent discount rounded
// half-up. Pure and total.
func ComputePriceBreakdown(isVip, rentEquipment bool) PriceBreakdown {
	b := PriceBreakdown{Benefits: []string{}}

	if rentEquipment {
		b.RentCents = RentFeeCents
	}

	switch {
	case rentEquipment:
		b.SubscriptionCents = 0
	case isVip:
		b.SubscriptionCents = 0
	default:
		b.SubscriptionCents = SubscriptionFeeCents
	}

	if isVip {
		b.Benefits = append(b.Benefits, BenefitVipFreeSub)
		if rentEquipment {
			b.DiscountCents = int64(math.Floor(float64(RentFeeCents)*vipRentDiscountRate + 0.5))
			b.Benefits = append(b.Benefits, BenefitVipRentDiscount)
		}
	}

	b.TotalCents = b.SubscriptionCents + b.RentCents - b.DiscountCents
	return b
}
