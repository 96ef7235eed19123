package services

import (
	"reflect"
	"testing"
)

func TestComputePriceBreakdown(t *testing.T) {
	tests := []struct {
		name string
		vip  bool
		rent bool
		want PriceBreakdown
	}{
		{
			name: "regular, no rent",
			want: PriceBreakdown{
				SubscriptionCents: 2000,
				TotalCents:        2000,
				Benefits:          []string{},
			},
		},
		{
			name: "regular with rent waives subscription",
			rent: true,
			want: PriceBreakdown{
				RentCents:  5000,
				TotalCents: 5000,
				Benefits:   []string{},
			},
		},
		{
			name: "vip, no rent, plays free",
			vip:  true,
			want: PriceBreakdown{
				TotalCents: 0,
				Benefits:   []string{BenefitVipFreeSub},
			},
		},
		{
			name: "vip with rent gets 30% off the rent",
			vip:  true,
			rent: true,
			want: PriceBreakdown{
				RentCents:     5000,
				DiscountCents: 1500,
				TotalCents:    3500,
				Benefits:      []string{BenefitVipFreeSub, BenefitVipRentDiscount},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePriceBreakdown(tt.vip, tt.rent)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputePriceBreakdown(%t, %t) = %+v, want %+v", tt.vip, tt.rent, got, tt.want)
			}
		})
	}
}
