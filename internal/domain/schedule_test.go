package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Schedule{Enabled: false}).Due(now))
	assert.True(t, (&Schedule{Enabled: true}).Due(now))
	assert.True(t, (&Schedule{Enabled: true, NextRunAt: &past}).Due(now))
	assert.False(t, (&Schedule{Enabled: true, NextRunAt: &future}).Due(now))
}

func TestScheduleIntervalFloor(t *testing.T) {
	assert.Equal(t, time.Minute, (&Schedule{IntervalMinutes: 0}).Interval())
	assert.Equal(t, 30*time.Minute, (&Schedule{IntervalMinutes: 30}).Interval())
}

func TestScheduleEnabledSyncTypesOrder(t *testing.T) {
	s := Schedule{SyncProducts: true, SyncOrders: true, SyncCustomers: true}
	assert.Equal(t, []SyncType{SyncTypeProduct, SyncTypeCustomer, SyncTypeOrder}, s.EnabledSyncTypes())
}

func TestOrderStateEditable(t *testing.T) {
	assert.True(t, OrderStateDraft.Editable())
	assert.True(t, OrderStateSent.Editable())
	assert.False(t, OrderStateConfirmed.Editable())
}
