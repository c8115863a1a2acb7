package tetris

// Cell はボードやピース形状の1マスを表します。
// ゼロ値は空のマスで、それ以外はそのマスを占有しているテトリミノの種類を保持します。
// 数値としてはパレットのインデックス（0: 空, 1-7: 各テトリミノの色）と一致します。
type Cell int

// Empty は空のマスです。
const Empty Cell = 0

// Occupied は指定されたテトリミノで埋まったマスを返します。
func Occupied(t PieceType) Cell {
	return Cell(t)
}

// IsEmpty はマスが空かどうかを返します。
func (c Cell) IsEmpty() bool {
	return c == Empty
}

// Piece はマスを占有しているテトリミノの種類を返します。
// 空のマスの場合は false を返します。
func (c Cell) Piece() (PieceType, bool) {
	if c == Empty {
		return 0, false
	}
	return PieceType(c), true
}

// PaletteIndex は描画側が色を引くためのインデックスを返します（0 は塗りつぶしなし）。
func (c Cell) PaletteIndex() int {
	return int(c)
}

// Position はボード上の座標です。ピースの場合は形状の左上のマスの位置を指します。
type Position struct {
	X int `json:"x"` // 列
	Y int `json:"y"` // 行（負の値はボードの上にはみ出している状態）
}

// Add は2つの座標を足し合わせた座標を返します。
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}
