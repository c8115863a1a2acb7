package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

func newPiece(t *testing.T, pt tetris.PieceType, pos tetris.Position) *ActivePiece {
	t.Helper()
	shape, err := tetris.NewShape(pt)
	require.NoError(t, err)
	return &ActivePiece{Type: pt, Shape: shape, Position: pos}
}

func TestFindBestMove_AlwaysThreeRotations(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)

	for _, pt := range tetris.AllPieceTypes() {
		piece := newPiece(t, pt, tetris.Position{X: 4, Y: 0})
		move := FindBestMove(piece, board)

		assert.Equal(t, 3, move.Rotation, "piece %s", pt)
		assert.Equal(t, 4, move.Position.X, "column never changes for %s", pt)

		// 3回回転させた形状で着地位置がちょうど床の上になっている
		shape := piece.Shape.Clone()
		shape.RotateTimes(3)
		assert.True(t, board.CanLock(shape, move.Position), "piece %s", pt)
		assert.False(t, board.Fits(shape, tetris.Position{X: 4, Y: move.Position.Y + 1}), "piece %s", pt)
	}
}

func TestFindBestMove_DoesNotMutatePiece(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	piece := newPiece(t, tetris.TypeL, tetris.Position{X: 5, Y: 0})
	before := piece.Clone()

	FindBestMove(piece, board)

	assert.Equal(t, before, piece)
}

func TestFindBestMove_SquarePiece(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	piece := newPiece(t, tetris.TypeO, tetris.Position{X: 5, Y: 0})

	move := FindBestMove(piece, board)

	assert.Equal(t, PlacementCandidate{Rotation: 3, Position: tetris.Position{X: 5, Y: 18}}, move)
}

func TestFindBestMove_IPiece(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	piece := newPiece(t, tetris.TypeI, tetris.Position{X: 4, Y: 0})

	move := FindBestMove(piece, board)

	// 3回回転させたIミノは形状の3行目に横棒があるので、y=17 で最下段に着地する
	assert.Equal(t, tetris.Position{X: 4, Y: 17}, move.Position)
}

func TestFindBestMove_StopsOnStack(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	require.NoError(t, board.SetCell(6, 10, tetris.Occupied(tetris.TypeZ)))
	piece := newPiece(t, tetris.TypeO, tetris.Position{X: 5, Y: 0})

	move := FindBestMove(piece, board)

	assert.Equal(t, tetris.Position{X: 5, Y: 8}, move.Position)
}

func TestFindBestMove_BlockedAtStart(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	require.NoError(t, board.SetCell(5, 2, tetris.Occupied(tetris.TypeZ)))
	piece := newPiece(t, tetris.TypeO, tetris.Position{X: 5, Y: 0})

	move := FindBestMove(piece, board)

	// 1つ下に動けないので出現位置のまま
	assert.Equal(t, tetris.Position{X: 5, Y: 0}, move.Position)
}
