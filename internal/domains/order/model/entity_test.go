package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusPaid, OrderStatusShipped, false},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
		{OrderStatusPaid, OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	n := NewOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^RST-260307-[0-9A-F]{8}$`), n)
	assert.NotEqual(t, n, NewOrderNumber(now))
}

func TestOrder_BelongsTo(t *testing.T) {
	owner := uuid.New()
	assert.True(t, (&Order{UserID: &owner}).BelongsTo(owner))
	assert.False(t, (&Order{UserID: &owner}).BelongsTo(uuid.New()))
	assert.False(t, (&Order{}).BelongsTo(owner))
}

func TestListOrdersRequest(t *testing.T) {
	req := ListOrdersRequest{Limit: 500}
	req.SetDefaults()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.Limit)
	assert.NoError(t, req.Validate())

	req.Status = "lost"
	assert.Error(t, req.Validate())
}
