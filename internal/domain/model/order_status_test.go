package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Valid(t *testing.T) {
	require.True(t, OrderStatusNew.Valid())
	require.True(t, OrderStatusDelivered.Valid())
	require.False(t, OrderStatus("Shipped").Valid())
	require.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	require.True(t, OrderStatusCancelled.IsTerminal())
	require.True(t, OrderStatusReturned.IsTerminal())

	// 已送達不是終態，還能走退貨流程
	require.False(t, OrderStatusDelivered.IsTerminal())
	require.False(t, OrderStatusNew.IsTerminal())
	require.False(t, OrderStatusPayFailed.IsTerminal())
}

func TestOrderStatus_CanAdminTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusNew, OrderStatusConfirmed, true},
		{OrderStatusPaid, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusPacking, true},
		{OrderStatusPacking, OrderStatusShipping, true},
		{OrderStatusShipping, OrderStatusDelivered, true},

		// 不允許跳關或倒退
		{OrderStatusNew, OrderStatusShipping, false},
		{OrderStatusShipping, OrderStatusPacking, false},
		{OrderStatusDelivered, OrderStatusConfirmed, false},

		// 終態與付款失敗不能再推進
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusReturned, OrderStatusConfirmed, false},
		{OrderStatusPayFailed, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.from.CanAdminTransitionTo(tt.to),
			"from %s to %s", tt.from, tt.to)
	}
}
