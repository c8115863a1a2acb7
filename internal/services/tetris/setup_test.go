package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

func TestResolveSetup(t *testing.T) {
	cfg := testSimulation()
	cfg.Seed = 99
	cfg.Pieces = "IO"

	assert.Equal(t, GameSetup{Seed: 5, Pieces: "T"}, ResolveSetup(cfg, 5, "T"))
	assert.Equal(t, GameSetup{Seed: 99, Pieces: "IO"}, ResolveSetup(cfg, 0, ""))

	cfg.Seed = 0
	assert.NotZero(t, ResolveSetup(cfg, 0, "").Seed)
}

func TestNewConfiguredGame_SameSeedSamePieces(t *testing.T) {
	cfg := testSimulation()
	setup := GameSetup{Seed: 1234}

	a, err := NewConfiguredGame(cfg, setup, WithLogger(quietLogger()))
	require.NoError(t, err)
	b, err := NewConfiguredGame(cfg, setup, WithLogger(quietLogger()))
	require.NoError(t, err)

	for i := 0; i < 20 && !a.IsGameOver(); i++ {
		require.Equal(t, a.CurrentPiece.Type, b.CurrentPiece.Type, "step %d", i)
		_, err := a.AdvanceStep()
		require.NoError(t, err)
		_, err = b.AdvanceStep()
		require.NoError(t, err)
	}
	assert.Equal(t, a.Board.Rows(), b.Board.Rows())
}

func TestNewConfiguredGame_Pieces(t *testing.T) {
	cfg := testSimulation()

	state, err := NewConfiguredGame(cfg, GameSetup{Seed: 1, Pieces: "ZS"}, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, tetris.TypeZ, state.CurrentPiece.Type)

	_, err = NewConfiguredGame(cfg, GameSetup{Seed: 1, Pieces: "Q"})
	assert.ErrorIs(t, err, tetris.ErrUnknownPieceType)
}
