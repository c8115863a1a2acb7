package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// PlacementRotations は配置探索で試す回転数です。
const PlacementRotations = 4

// PlacementCandidate は配置探索が選んだ（回転数, 着地位置）の組です。
// 求めた直後に AdvanceStep で消費されます。
type PlacementCandidate struct {
	Rotation int             `json:"rotation"` // 時計回りに回転させる回数
	Position tetris.Position `json:"position"` // 回転後の形状の左上の着地位置
}

// FindBestMove は落下中のピースをどこに、どう回転させて置くかを決めます。
//
// 回転数 r = 0..3 のそれぞれについて、作業用の形状を1回ずつ累積で回転させ、
// ピースの現在位置からそのまま真下に落とせるところまで落とします。
// 候補は比較せずに毎回上書きするため、結果は常に「3回回転させて元の列に落とす」になります。
// 列は変えずに縦方向の落下位置だけを探索します。
//
// Parameters:
//
//	piece : 落下中のピース（変更されません）
//	board : 現在のボード
//
// Returns:
//
//	PlacementCandidate: 最後に求めた候補
func FindBestMove(piece *ActivePiece, board *tetris.Board) PlacementCandidate {
	best := PlacementCandidate{Rotation: 0, Position: piece.Position}
	shape := piece.Shape.Clone()

	for r := 0; r < PlacementRotations; r++ {
		if r > 0 {
			shape.Rotate()
		}

		x, y := piece.Position.X, piece.Position.Y
		for board.Fits(shape, tetris.Position{X: x, Y: y + 1}) {
			y++
		}

		best = PlacementCandidate{Rotation: r, Position: tetris.Position{X: x, Y: y}}
	}
	return best
}
