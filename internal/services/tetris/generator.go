package tetris

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// PieceGenerator は次に出現するテトリミノの種類を決めます。
type PieceGenerator interface {
	Next() tetris.PieceType
}

// RandomGenerator は7種類から一様にランダムに選ぶジェネレータです。
type RandomGenerator struct {
	r *rand.Rand
}

// NewRandomGenerator は乱数生成器を使うジェネレータを返します。
func NewRandomGenerator(r *rand.Rand) *RandomGenerator {
	return &RandomGenerator{r: r}
}

// Next は次のテトリミノをランダムに返します。
func (g *RandomGenerator) Next() tetris.PieceType {
	return tetris.RandomPieceType(g.r)
}

// SequenceGenerator は決められた並びを繰り返し返すジェネレータです。
// 再現可能な実行やテストで使います。
type SequenceGenerator struct {
	types []tetris.PieceType
	next  int
}

// NewSequenceGenerator は types を先頭から順に繰り返すジェネレータを返します。
//
// Parameters:
//
//	types : 出現させるテトリミノの並び（1つ以上）
//
// Returns:
//
//	*SequenceGenerator: 初期化されたジェネレータ
//	error: 並びが空か、カタログにない種類を含む場合
func NewSequenceGenerator(types ...tetris.PieceType) (*SequenceGenerator, error) {
	if len(types) == 0 {
		return nil, errors.New("piece sequence must not be empty")
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %d", tetris.ErrUnknownPieceType, int(t))
		}
	}
	seq := make([]tetris.PieceType, len(types))
	copy(seq, types)
	return &SequenceGenerator{types: seq}, nil
}

// Next は並びの次のテトリミノを返します。末尾まで来たら先頭に戻ります。
func (g *SequenceGenerator) Next() tetris.PieceType {
	t := g.types[g.next]
	g.next = (g.next + 1) % len(g.types)
	return t
}
