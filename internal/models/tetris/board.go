package tetris

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultBoardWidth  = 12 // ボードの幅
	DefaultBoardHeight = 20 // ボードの高さ
)

var (
	// ErrInvalidDimensions はボードの幅または高さが正でないことを表します。
	ErrInvalidDimensions = errors.New("board dimensions must be positive")
	// ErrOutOfBounds はボード外の座標が指定されたことを表します。
	ErrOutOfBounds = errors.New("position out of board bounds")
	// ErrFixationViolation はボード外や既に埋まったマスへピースを固定しようとしたことを表します。
	// Fits / CanLock で事前に確認していれば発生しないため、発生した場合は panic します。
	ErrFixationViolation = errors.New("piece fixation precondition violated")
)

// Board はテトリスのゲームボードを表す固定サイズのグリッドです。
// 作成後に幅と高さが変わることはありません。
// cells[y][x] でアクセスします。yは行、xは列です。
type Board struct {
	width  int
	height int
	cells  [][]Cell
}

// NewBoard は新しい空のボードを初期化して返します。
//
// Parameters:
//
//	width  : ボードの幅（列数）
//	height : ボードの高さ（行数）
//
// Returns:
//
//	*Board: すべてのマスが空のボード
//	error: 幅か高さが0以下の場合は ErrInvalidDimensions
func NewBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}
	return &Board{width: width, height: height, cells: cells}, nil
}

// Width はボードの幅を返します。
func (b *Board) Width() int { return b.width }

// Height はボードの高さを返します。
func (b *Board) Height() int { return b.height }

// Cell は指定位置のマスを返します。範囲外の場合は Empty を返します。
func (b *Board) Cell(x, y int) Cell {
	if !b.inBounds(x, y) {
		return Empty
	}
	return b.cells[y][x]
}

// SetCell は指定位置のマスを書き換えます。プリセット盤面の作成などに使います。
func (b *Board) SetCell(x, y int, c Cell) error {
	if !b.inBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	if _, ok := c.Piece(); ok && !PieceType(c).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownPieceType, int(c))
	}
	b.cells[y][x] = c
	return nil
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// IsRowFull は指定された行がすべて埋まっているかどうかを返します。
func (b *Board) IsRowFull(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	for _, c := range b.cells[y] {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

// MergePiece は落下したピースをボードに固定します。
// ピースの空でないマスの識別子を pos + 相対座標 のマスに書き込みます。
//
// 呼び出し前に CanLock で確認されていることが前提です。
// ボード外や既に埋まっているマスが含まれていた場合は何も書き込まずに panic します。
//
// Parameters:
//
//	shape : 固定するピースの形状
//	pos   : 形状の左上のボード上の位置
func (b *Board) MergePiece(shape Shape, pos Position) {
	blocks := shape.Blocks()
	for _, block := range blocks {
		x, y := pos.X+block.X, pos.Y+block.Y
		if !b.inBounds(x, y) || !b.cells[y][x].IsEmpty() {
			panic(fmt.Errorf("%w: cell (%d,%d)", ErrFixationViolation, x, y))
		}
	}
	for _, block := range blocks {
		b.cells[pos.Y+block.Y][pos.X+block.X] = shape[block.Y][block.X]
	}
}

// ClearLines は揃ったラインを1回の走査でまとめて消去し、上のブロックを落とします。
// 最下段から上に向かって調べ、揃った行を取り除いて最上段に空の行を挿入します。
// 行を取り除いた直後は同じ行番号に新しい内容が来ているため、もう一度同じ行を調べます。
//
// Returns:
//
//	int: クリアされたライン数
func (b *Board) ClearLines() int {
	cleared := 0
	for y := b.height - 1; y >= 0; {
		if !b.IsRowFull(y) {
			y--
			continue
		}
		row := b.cells[y]
		for i := range row {
			row[i] = Empty
		}
		copy(b.cells[1:y+1], b.cells[:y])
		b.cells[0] = row
		cleared++
	}
	return cleared
}

// Rows はボードの内容のディープコピーを返します。
func (b *Board) Rows() [][]Cell {
	rows := make([][]Cell, b.height)
	for y, row := range b.cells {
		rows[y] = make([]Cell, b.width)
		copy(rows[y], row)
	}
	return rows
}

// Clone はボードのディープコピーを返します。
func (b *Board) Clone() *Board {
	return &Board{width: b.width, height: b.height, cells: b.Rows()}
}

// FilledCount は埋まっているマスの数を返します。
func (b *Board) FilledCount() int {
	n := 0
	for _, row := range b.cells {
		for _, c := range row {
			if !c.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// MarshalJSON はボードをパレットインデックスの2次元配列として出力します。
func (b *Board) MarshalJSON() ([]byte, error) {
	rows := make([][]int, b.height)
	for y, row := range b.cells {
		rows[y] = make([]int, b.width)
		for x, c := range row {
			rows[y][x] = c.PaletteIndex()
		}
	}
	return json.Marshal(rows)
}
