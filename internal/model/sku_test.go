package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveOrderCycle(t *testing.T) {
	cases := []struct {
		name                 string
		vendorOrderCycleDays int
		itemCycleDays        int
		want                 int
	}{
		{"vendor cycle wins when item cycle is unset", 14, 0, 14},
		{"item cycle wins when it exceeds vendor cycle", 14, 21, 21},
		{"vendor cycle wins when it exceeds item cycle", 21, 14, 21},
		{"equal cycles", 7, 7, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectiveOrderCycle(tc.vendorOrderCycleDays, tc.itemCycleDays)
			assert.Equal(t, tc.want, got)
		})
	}
}
