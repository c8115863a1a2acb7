package tetris

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnknownPieceType はカタログに存在しないテトリミノが要求されたことを表します。
var ErrUnknownPieceType = errors.New("unknown piece type")

// PieceType はテトリミノの種類を表します。
// 値はそのままボード上の識別子（パレットのインデックス）として使われます。
type PieceType int

const (
	TypeT PieceType = iota + 1 // 1: T-ミノ
	TypeO                      // 2: O-ミノ
	TypeL                      // 3: L-ミノ
	TypeJ                      // 4: J-ミノ
	TypeI                      // 5: I-ミノ
	TypeS                      // 6: S-ミノ
	TypeZ                      // 7: Z-ミノ
)

// spawnOrder はランダム生成時に使う並び順です。
var spawnOrder = []PieceType{TypeT, TypeJ, TypeL, TypeO, TypeS, TypeZ, TypeI}

// pieceShapes は各テトリミノの初期形状です。0 は空、それ以外は識別子を表します。
// すべて正方形で、回転してもサイズは変わりません。
var pieceShapes = map[PieceType][][]int{
	TypeT: {
		{0, 0, 0},
		{1, 1, 1},
		{0, 1, 0},
	},
	TypeO: {
		{2, 2},
		{2, 2},
	},
	TypeL: {
		{0, 3, 0},
		{0, 3, 0},
		{0, 3, 3},
	},
	TypeJ: {
		{0, 4, 0},
		{0, 4, 0},
		{4, 4, 0},
	},
	TypeI: {
		{0, 5, 0, 0},
		{0, 5, 0, 0},
		{0, 5, 0, 0},
		{0, 5, 0, 0},
	},
	TypeS: {
		{0, 6, 6},
		{6, 6, 0},
		{0, 0, 0},
	},
	TypeZ: {
		{7, 7, 0},
		{0, 7, 7},
		{0, 0, 0},
	},
}

// Valid はカタログに存在する種類かどうかを返します。
func (t PieceType) Valid() bool {
	_, ok := pieceShapes[t]
	return ok
}

// String は "T", "O" のような1文字の表記を返します。
func (t PieceType) String() string {
	switch t {
	case TypeT:
		return "T"
	case TypeO:
		return "O"
	case TypeL:
		return "L"
	case TypeJ:
		return "J"
	case TypeI:
		return "I"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	default:
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
}

// MarshalText はJSONなどで "T" のような表記にするために使われます。
// ピースがない状態（0）は空文字列になります。
func (t PieceType) MarshalText() ([]byte, error) {
	if t == 0 {
		return []byte{}, nil
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	return []byte(t.String()), nil
}

// ParsePieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
//
// Parameters:
//
//	s : 1文字のテトリミノ表記
//
// Returns:
//
//	PieceType: 対応するテトリミノの種類
//	error: カタログに存在しない場合は ErrUnknownPieceType
func ParsePieceType(s string) (PieceType, error) {
	switch s {
	case "T":
		return TypeT, nil
	case "O":
		return TypeO, nil
	case "L":
		return TypeL, nil
	case "J":
		return TypeJ, nil
	case "I":
		return TypeI, nil
	case "S":
		return TypeS, nil
	case "Z":
		return TypeZ, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPieceType, s)
	}
}

// ParsePieceSequence は "IOT" のような文字列をテトリミノの並びに変換します。
func ParsePieceSequence(s string) ([]PieceType, error) {
	types := make([]PieceType, 0, len(s))
	for _, r := range s {
		t, err := ParsePieceType(string(r))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// AllPieceTypes は7種類のテトリミノをランダム生成と同じ順序で返します。
func AllPieceTypes() []PieceType {
	out := make([]PieceType, len(spawnOrder))
	copy(out, spawnOrder)
	return out
}

// RandomPieceType は7種類の中から一様にランダムに1つを選びます。
func RandomPieceType(r *rand.Rand) PieceType {
	return spawnOrder[r.Intn(len(spawnOrder))]
}

// NewShape は指定された種類の初期形状を新しく作って返します。
// 返される形状は呼び出し側が自由に回転してよい独立したコピーです。
//
// Parameters:
//
//	t : テトリミノの種類
//
// Returns:
//
//	Shape: N×N の形状
//	error: カタログに存在しない種類の場合は ErrUnknownPieceType
func NewShape(t PieceType) (Shape, error) {
	src, ok := pieceShapes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	shape := make(Shape, len(src))
	for y, row := range src {
		shape[y] = make([]Cell, len(row))
		for x, v := range row {
			shape[y][x] = Cell(v)
		}
	}
	return shape, nil
}

// Shape はテトリミノの形状を表す N×N の正方形グリッドです。shape[y][x] でアクセスします。
type Shape [][]Cell

// Size は一辺の長さを返します。
func (s Shape) Size() int {
	return len(s)
}

// Clone は形状のディープコピーを返します。
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for y, row := range s {
		out[y] = make([]Cell, len(row))
		copy(out[y], row)
	}
	return out
}

// Equal は2つの形状がマス単位で一致するかどうかを返します。
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for y := range s {
		if len(s[y]) != len(o[y]) {
			return false
		}
		for x := range s[y] {
			if s[y][x] != o[y][x] {
				return false
			}
		}
	}
	return true
}

// Blocks は空でないマスの形状内での相対座標を返します。
func (s Shape) Blocks() []Position {
	blocks := make([]Position, 0, 4)
	for y, row := range s {
		for x, c := range row {
			if !c.IsEmpty() {
				blocks = append(blocks, Position{X: x, Y: y})
			}
		}
	}
	return blocks
}
