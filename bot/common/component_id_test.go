package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentID(t *testing.T) {
	id := uuid.New()

	t.Run("without arg", func(t *testing.T) {
		c := ComponentID{Feature: "bj", Action: "hit", SessionID: id}
		assert.Equal(t, "bj:hit:"+id.String(), c.String())

		parsed, err := ParseComponentID(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	})

	t.Run("with arg", func(t *testing.T) {
		c := ComponentID{Feature: "mines", Action: "tile", SessionID: id, Arg: "17"}
		parsed, err := ParseComponentID(c.String())
		require.NoError(t, err)
		assert.Equal(t, "17", parsed.Arg)
		assert.LessOrEqual(t, len(c.String()), 100)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseComponentID("bj:hit")
		assert.Error(t, err)
		_, err = ParseComponentID("bj:hit:not-a-uuid")
		assert.Error(t, err)
	})
}

func TestMessageTracker(t *testing.T) {
	tracker := NewMessageTracker()
	id := uuid.New()

	_, ok := tracker.Lookup(id)
	assert.False(t, ok)

	tracker.Track(id, MessageRef{ChannelID: "c", MessageID: "m"})
	ref, ok := tracker.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "m", ref.MessageID)
	assert.Equal(t, 1, tracker.Len())

	tracker.Forget(id)
	assert.Equal(t, 0, tracker.Len())
}
