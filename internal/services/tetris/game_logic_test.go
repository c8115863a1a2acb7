package tetris

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// recorder は OnLinesCleared の呼び出しを記録します。
type recorder struct {
	calls []int
}

func (r *recorder) OnLinesCleared(count int) {
	r.calls = append(r.calls, count)
}

// TestAdvanceStep_SquarePiece は空のボードでOミノを1回置いた結果をテストします。
func TestAdvanceStep_SquarePiece(t *testing.T) {
	rec := &recorder{}
	state := newSequenceState(t, "O", WithLineClearListener(rec))

	result, err := state.AdvanceStep()
	require.NoError(t, err)

	assert.Equal(t, 3, result.Placement.Rotation)
	assert.Equal(t, tetris.Position{X: 5, Y: 18}, result.Placement.Position)
	assert.Equal(t, 0, result.LinesCleared)
	assert.False(t, result.GameOver)

	for _, p := range []tetris.Position{{X: 5, Y: 18}, {X: 6, Y: 18}, {X: 5, Y: 19}, {X: 6, Y: 19}} {
		assert.Equal(t, 2, state.Board.Cell(p.X, p.Y).PaletteIndex(), "cell %v", p)
	}
	assert.Equal(t, 4, state.Board.FilledCount())

	// ライン消去がなくても通知は1回
	assert.Equal(t, []int{0}, rec.calls)
	assert.Equal(t, 1, state.Steps)
	assert.Equal(t, 1, state.PiecesPlaced)

	// 次のピースが出現している
	assert.Equal(t, tetris.Position{X: 5, Y: 0}, state.CurrentPiece.Position)
}

// TestAdvanceStep_ClearsBottomRow は最下段が揃ったステップでちょうど1回1ラインの通知が来ることをテストします。
func TestAdvanceStep_ClearsBottomRow(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	// Iミノが入る列 4..7 以外を埋めておく
	for x := 0; x < 12; x++ {
		if x >= 4 && x <= 7 {
			continue
		}
		require.NoError(t, board.SetCell(x, 19, tetris.Occupied(tetris.TypeZ)))
	}

	rec := &recorder{}
	state := newSequenceState(t, "IO", WithBoard(board), WithLineClearListener(rec))

	result, err := state.AdvanceStep()
	require.NoError(t, err)

	assert.Equal(t, 1, result.LinesCleared)
	assert.Equal(t, []int{1}, rec.calls)
	for x := 0; x < 12; x++ {
		assert.True(t, state.Board.Cell(x, 19).IsEmpty(), "column %d of the bottom row", x)
	}
	assert.Equal(t, 0, state.Board.FilledCount())

	// 続くステップでは消去なし
	_, err = state.AdvanceStep()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, rec.calls)
}

// TestAdvanceStep_FillsRowOverSeveralSteps は複数ステップかけて最下段を埋めたときの通知をテストします。
func TestAdvanceStep_FillsRowOverSeveralSteps(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	// 列 4..7 だけ空けて、さらにその上の段も空の状態にする
	for x := 0; x < 12; x++ {
		if x >= 4 && x <= 7 {
			continue
		}
		require.NoError(t, board.SetCell(x, 19, tetris.Occupied(tetris.TypeJ)))
		require.NoError(t, board.SetCell(x, 18, tetris.Occupied(tetris.TypeJ)))
	}

	rec := &recorder{}
	// Iミノを2回置くと、消去で下に落ちてきた18段目も続けて揃う
	state := newSequenceState(t, "II", WithBoard(board), WithLineClearListener(rec))

	first, err := state.AdvanceStep()
	require.NoError(t, err)
	assert.Equal(t, 1, first.LinesCleared)

	second, err := state.AdvanceStep()
	require.NoError(t, err)
	assert.Equal(t, 1, second.LinesCleared)

	assert.Equal(t, []int{1, 1}, rec.calls)
	assert.Equal(t, 0, state.Board.FilledCount())
}

// TestAdvanceStep_GameOverWhenStackReachesTop は積み上がって出現できなくなるとゲームオーバーになることをテストします。
func TestAdvanceStep_GameOverWhenStackReachesTop(t *testing.T) {
	rec := &recorder{}
	state := newSequenceState(t, "O", WithLineClearListener(rec))

	// Oミノは毎回列5,6に2段ずつ積まれるので10回で最上段まで埋まる
	for i := 0; i < 9; i++ {
		result, err := state.AdvanceStep()
		require.NoError(t, err)
		require.False(t, result.GameOver, "step %d", i)
	}

	result, err := state.AdvanceStep()
	require.NoError(t, err)
	assert.True(t, result.GameOver)
	assert.True(t, state.IsGameOver())
	assert.Equal(t, 10, state.PiecesPlaced)
	assert.Len(t, rec.calls, 10)

	// 終端状態ではこれ以上進まない
	_, err = state.AdvanceStep()
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Equal(t, 10, state.PiecesPlaced)
}

// TestAdvanceStep_UnlockablePlacement は選ばれた配置が固定できない場合に盤面を壊さずゲームオーバーになることをテストします。
func TestAdvanceStep_UnlockablePlacement(t *testing.T) {
	board, err := tetris.NewBoard(12, 20)
	require.NoError(t, err)
	// Tミノは出現位置では収まるが、3回回転させると (6,0) と重なり、1つ下では (6,3) と重なる
	require.NoError(t, board.SetCell(6, 0, tetris.Occupied(tetris.TypeZ)))
	require.NoError(t, board.SetCell(6, 3, tetris.Occupied(tetris.TypeZ)))

	rec := &recorder{}
	state := newSequenceState(t, "T", WithBoard(board), WithLineClearListener(rec))
	require.False(t, state.IsGameOver())

	result, err := state.AdvanceStep()
	require.NoError(t, err)

	assert.True(t, result.GameOver)
	assert.True(t, state.IsGameOver())
	assert.Equal(t, 2, state.Board.FilledCount(), "board must be untouched")
	assert.Empty(t, rec.calls, "no notification for an unfinished step")

	// 落下中のピースも出現時のまま残る
	spawn, err := tetris.NewShape(tetris.TypeT)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentPiece)
	assert.Equal(t, spawn, state.CurrentPiece.Shape)
	assert.Equal(t, tetris.Position{X: 5, Y: 0}, state.CurrentPiece.Position)
	assert.True(t, state.Board.Fits(state.CurrentPiece.Shape, state.CurrentPiece.Position))
	assert.Equal(t, 3, result.Placement.Rotation)
}

// TestAdvanceStep_RandomRunKeepsInvariants はランダムなピースで終了まで回し、毎ステップ盤面の不変条件を確認します。
func TestAdvanceStep_RandomRunKeepsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rec := &recorder{}
		state, err := NewGameState(12, 20,
			WithRand(rand.New(rand.NewSource(seed))),
			WithLineClearListener(rec),
			WithLogger(quietLogger()),
		)
		require.NoError(t, err)

		for i := 0; i < 500 && !state.IsGameOver(); i++ {
			before := state.Board.FilledCount()
			placed := state.PiecesPlaced
			result, err := state.AdvanceStep()
			require.NoError(t, err)
			if state.PiecesPlaced == placed {
				// 固定できずに終わったステップは盤面を変えない
				require.True(t, result.GameOver)
				assert.Equal(t, before, state.Board.FilledCount())
				break
			}

			// 固定した4マス分だけ増え、消えたライン分だけ減る
			assert.Equal(t, before+4-12*result.LinesCleared, state.Board.FilledCount(), "seed %d step %d", seed, i)
			for y := 0; y < state.Board.Height(); y++ {
				assert.False(t, state.Board.IsRowFull(y), "no full row survives a step")
				for x := 0; x < state.Board.Width(); x++ {
					c := state.Board.Cell(x, y)
					if p, ok := c.Piece(); ok {
						assert.True(t, p.Valid())
					}
				}
			}
		}

		// 列が固定されているので必ずどこかで積み上がって終わる
		assert.True(t, state.IsGameOver(), "seed %d", seed)
		assert.Len(t, rec.calls, state.PiecesPlaced, "one notification per completed step")
	}
}
