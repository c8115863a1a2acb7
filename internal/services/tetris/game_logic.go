package tetris

import (
	"errors"
	"fmt"
)

// ErrGameOver はゲームオーバー後にステップを進めようとしたことを表します。
var ErrGameOver = errors.New("game is over")

// LineClearListener はステップごとに消えたライン数の通知を受け取ります。
// 攻撃力やスコアの集計と表示は通知先の責任です。
type LineClearListener interface {
	OnLinesCleared(count int)
}

// LineClearFunc は関数を LineClearListener として使うためのアダプタです。
type LineClearFunc func(count int)

// OnLinesCleared は f(count) を呼び出します。
func (f LineClearFunc) OnLinesCleared(count int) {
	f(count)
}

// StepResult は1ステップの結果です。
type StepResult struct {
	Piece        ActivePiece        `json:"piece"`         // 固定されたピース（着地後の形状と位置）
	Placement    PlacementCandidate `json:"placement"`     // 配置探索の結果
	LinesCleared int                `json:"lines_cleared"` // このステップで消えたライン数
	GameOver     bool               `json:"game_over"`     // このステップの結果ゲームオーバーになったか
}

// AdvanceStep はシミュレーションを1ステップ進めます。
// 配置探索、回転の適用、着地位置への移動、ボードへの固定、ライン消去、通知、次のピースの出現までを
// 1回の呼び出しで完了させるため、途中の状態が外から見えることはありません。
//
// 選ばれた配置がボードに固定できない場合（積み上がりすぎ）は、ボードを変更せず通知もせずに
// ゲームオーバーになります。新しいピースが出現位置で衝突した場合は、そのステップの処理を終えた後で
// ゲームオーバーになります。
//
// Returns:
//
//	StepResult: このステップの結果
//	error: 既にゲームオーバーの場合は ErrGameOver
func (s *GameState) AdvanceStep() (StepResult, error) {
	if s.IsGameOver() {
		return StepResult{GameOver: true}, ErrGameOver
	}

	placement := FindBestMove(s.CurrentPiece, s.Board)

	// 回転と位置は複製に適用し、固定できると分かるまで CurrentPiece は変更しない
	// （落下のアニメーションはせず、着地位置に直接移動する）
	piece := s.CurrentPiece.Clone()
	piece.Shape.RotateTimes(placement.Rotation)
	piece.Position = placement.Position

	if !s.Board.CanLock(piece.Shape, piece.Position) {
		s.Status = StatusGameOver
		s.logger.Info("placement cannot be locked, game over",
			"piece", piece.Type, "position", fmt.Sprintf("(%d,%d)", piece.Position.X, piece.Position.Y),
			"steps", s.Steps, "pieces", s.PiecesPlaced)
		return StepResult{Piece: *piece, Placement: placement, GameOver: true}, nil
	}
	s.CurrentPiece = piece

	s.Board.MergePiece(piece.Shape, piece.Position)
	s.PiecesPlaced++

	cleared := s.Board.ClearLines()
	s.listener.OnLinesCleared(cleared)
	if cleared > 0 {
		s.logger.Debug("lines cleared", "lines", cleared, "steps", s.Steps)
	}

	result := StepResult{Piece: *piece.Clone(), Placement: placement, LinesCleared: cleared}

	if err := s.SpawnNewPiece(); err != nil {
		return result, err
	}
	s.Steps++
	result.GameOver = s.IsGameOver()
	return result, nil
}
