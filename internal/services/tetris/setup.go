package tetris

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// GameSetup は設定から決まったシードとピース列です。
type GameSetup struct {
	Seed   int64
	Pieces string
}

// ResolveSetup は引数が空の場合に設定値で補い、それも空ならシードに現在時刻を使います。
func ResolveSetup(cfg config.Simulation, seed int64, pieces string) GameSetup {
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if pieces == "" {
		pieces = cfg.Pieces
	}
	return GameSetup{Seed: seed, Pieces: pieces}
}

// NewConfiguredGame は設定の盤面サイズとピース生成ルールでゲーム状態を作成します。
// ピース列が指定されていればその順で繰り返し、空ならシードから乱数で生成します。
//
// Parameters:
//
//	cfg   : シミュレーション設定
//	setup : ResolveSetup で決めたシードとピース列
//	opts  : 通知先やロガーなど追加の設定
//
// Returns:
//
//	*GameState: 初期化されたゲーム状態
//	error: ピース列や盤面サイズが不正な場合
func NewConfiguredGame(cfg config.Simulation, setup GameSetup, opts ...Option) (*GameState, error) {
	if setup.Pieces != "" {
		types, err := tetris.ParsePieceSequence(setup.Pieces)
		if err != nil {
			return nil, fmt.Errorf("ピース列が不正です: %w", err)
		}
		gen, err := NewSequenceGenerator(types...)
		if err != nil {
			return nil, fmt.Errorf("ピース列が不正です: %w", err)
		}
		opts = append(opts, WithPieceGenerator(gen))
	} else {
		opts = append(opts, WithRand(rand.New(rand.NewSource(setup.Seed))))
	}
	return NewGameState(cfg.BoardWidth, cfg.BoardHeight, opts...)
}
