package peripheral_test

import (
	"testing"

	"github.com/srg/blemidi/internal/peripheral"
	"github.com/srg/blemidi/internal/testutils/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionTable(t *testing.T) {
	table := peripheral.NewSubscriptionTable()

	require.True(t, table.Put("b", mocks.Subscription("b")), "first put MUST insert")
	require.True(t, table.Put("a", mocks.Subscription("a")))
	require.False(t, table.Put("a", mocks.Subscription("a")), "second put MUST NOT duplicate")

	assert.Equal(t, 2, table.Len())
	assert.True(t, table.Contains("a"))
	assert.Equal(t, []peripheral.ConnectedCentral{{ID: "a"}, {ID: "b"}}, table.Centrals())
	assert.Len(t, table.Handles(), 2)

	central, ok := table.Remove("a", mocks.Subscription("a"))
	assert.True(t, ok)
	assert.Equal(t, "a", central.ID)

	_, ok = table.Remove("a", mocks.Subscription("a"))
	assert.False(t, ok, "removing twice MUST report absence")

	assert.Equal(t, 1, table.Clear())
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Centrals())
}

func TestSubscriptionTable_RemoveMatchesHandle(t *testing.T) {
	// GOAL: An unsubscribe for a replaced subscription must not drop the live one
	//
	// TEST SCENARIO: put c with handle "old", replace with "new" → remove with "old" fails; remove with nil succeeds

	table := peripheral.NewSubscriptionTable()
	require.True(t, table.Put("c", mocks.Subscription("old")))
	require.False(t, table.Put("c", mocks.Subscription("new")))

	_, ok := table.Remove("c", mocks.Subscription("old"))
	assert.False(t, ok, "stale handle MUST NOT remove the entry")
	assert.True(t, table.Contains("c"))
	assert.Equal(t, []peripheral.Subscription{mocks.Subscription("new")}, table.Handles())

	central, ok := table.Remove("c", nil)
	assert.True(t, ok, "nil handle MUST match any subscription")
	assert.Equal(t, "c", central.ID)
	assert.Zero(t, table.Len())
}

func TestConnectedCentral_ShortID(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"1A2B3C4D-5E6F-0000-0000-000000000000", "1A2B3C4D"},
		{"aa:bb:cc:dd:ee:ff", "aabbccdd"},
		{"12-34", "1234"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, peripheral.ConnectedCentral{ID: tt.id}.ShortID())
		})
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "powered_on", peripheral.RadioPoweredOn.String())
	assert.Equal(t, "unknown", peripheral.RadioUnknown.String())
	assert.Equal(t, "publishing_service", peripheral.PublishingService.String())
	assert.Equal(t, "idle", peripheral.Idle.String())
	assert.Equal(t, "central_connected", peripheral.NotifyCentralConnected.String())
}
