package mines

import (
	"testing"

	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/games"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFor(t *testing.T) {
	tuning := config.DefaultGameTuning().Mines
	layout := make([]bool, tuning.Tiles())
	layout[0] = true
	id := common.ComponentID{Feature: Prefix, SessionID: uuid.New()}

	t.Run("reveal a gem", func(t *testing.T) {
		game := games.NewMinesWithLayout(1, 100, tuning, layout)
		id := id
		id.Action, id.Arg = "tile", "5"

		move, err := moveFor(game, id)
		require.NoError(t, err)
		require.NoError(t, move(nil))
		assert.True(t, game.Revealed(5))
		assert.Equal(t, 1, game.SafeRevealed())
	})

	t.Run("reveal a mine", func(t *testing.T) {
		game := games.NewMinesWithLayout(1, 100, tuning, layout)
		id := id
		id.Action, id.Arg = "tile", "0"

		move, err := moveFor(game, id)
		require.NoError(t, err)
		require.NoError(t, move(nil))
		assert.True(t, game.HitMine())
		assert.True(t, game.Finished())
	})

	t.Run("cash out", func(t *testing.T) {
		game := games.NewMinesWithLayout(1, 100, tuning, layout)
		id := id
		id.Action = "cashout"

		move, err := moveFor(game, id)
		require.NoError(t, err)
		require.NoError(t, move(nil))
		assert.True(t, game.Finished())
		assert.Equal(t, int64(100), game.CurrentPayout())
	})

	t.Run("bad tile", func(t *testing.T) {
		game := games.NewMinesWithLayout(1, 100, tuning, layout)
		id := id
		id.Action, id.Arg = "tile", "x"

		_, err := moveFor(game, id)
		assert.ErrorIs(t, err, games.ErrIllegalMove)
	})
}
