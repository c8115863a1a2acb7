package tetris

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// Status はシミュレーションの状態です。
type Status string

const (
	StatusFalling  Status = "falling"   // 落下中のピースがある
	StatusGameOver Status = "game_over" // これ以上ピースを置けない（終端状態）
)

// ActivePiece は現在落下中のテトリミノです。
// 形状は回転で置き換えられ、位置は着地位置への移動で更新されます。
type ActivePiece struct {
	Type     tetris.PieceType `json:"type"`
	Shape    tetris.Shape     `json:"shape"`
	Position tetris.Position  `json:"position"`
}

// Clone は現在のActivePieceのディープコピーを返します。
func (p *ActivePiece) Clone() *ActivePiece {
	return &ActivePiece{Type: p.Type, Shape: p.Shape.Clone(), Position: p.Position}
}

// GameState は1つの自動プレイのシミュレーション状態です。
// ボードと落下中のピースはこの構造体だけが所有し、AdvanceStep の呼び出し1回で1ステップ進みます。
// 並行アクセスは想定していません（呼び出し側で直列化してください）。
type GameState struct {
	Board        *tetris.Board `json:"board"`
	CurrentPiece *ActivePiece  `json:"current_piece"`
	Status       Status        `json:"status"`
	Steps        int           `json:"steps"`         // 完了したステップ数
	PiecesPlaced int           `json:"pieces_placed"` // ボードに固定したピースの数

	generator PieceGenerator
	listener  LineClearListener
	logger    *log.Logger
}

// Option は NewGameState の設定を変更します。
type Option func(*GameState)

// WithRand はピース生成に使う乱数生成器を指定します。
func WithRand(r *rand.Rand) Option {
	return func(s *GameState) {
		s.generator = NewRandomGenerator(r)
	}
}

// WithPieceGenerator はピース生成のルールを差し替えます。
func WithPieceGenerator(g PieceGenerator) Option {
	return func(s *GameState) {
		s.generator = g
	}
}

// WithLineClearListener はステップごとのライン消去数の通知先を指定します。
func WithLineClearListener(l LineClearListener) Option {
	return func(s *GameState) {
		s.listener = l
	}
}

// WithBoard は初期盤面を指定します。盤面はそのまま GameState の所有になります。
func WithBoard(b *tetris.Board) Option {
	return func(s *GameState) {
		s.Board = b
	}
}

// WithLogger はロガーを指定します。
func WithLogger(l *log.Logger) Option {
	return func(s *GameState) {
		s.logger = l
	}
}

// NewGameState は新しいシミュレーション状態を初期化して返します。
// 最初のピースも生成されます。
//
// Parameters:
//
//	width, height : ボードの大きさ（WithBoard を指定した場合は無視されます）
//	opts          : 乱数、ピース生成、通知先などの設定
//
// Returns:
//
//	*GameState: 初期化されたシミュレーション状態のポインタ
//	error: ボードの大きさが不正な場合
func NewGameState(width, height int, opts ...Option) (*GameState, error) {
	s := &GameState{Status: StatusFalling}
	for _, opt := range opts {
		opt(s)
	}

	if s.Board == nil {
		board, err := tetris.NewBoard(width, height)
		if err != nil {
			return nil, fmt.Errorf("ボードの作成に失敗しました: %w", err)
		}
		s.Board = board
	}
	if s.generator == nil {
		// 乱数生成器のシードを現在時刻で初期化
		s.generator = NewRandomGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	if s.listener == nil {
		s.listener = LineClearFunc(func(int) {})
	}
	if s.logger == nil {
		s.logger = log.Default().WithPrefix("GameState")
	}

	if err := s.SpawnNewPiece(); err != nil {
		return nil, err
	}
	return s, nil
}

// SpawnNewPiece は新しいテトリミノをボードの中央上部に出現させます。
// 出現位置で既に衝突している場合はゲームオーバーになります。
func (s *GameState) SpawnNewPiece() error {
	pieceType := s.generator.Next()
	shape, err := tetris.NewShape(pieceType)
	if err != nil {
		return fmt.Errorf("ピースの生成に失敗しました: %w", err)
	}

	s.CurrentPiece = &ActivePiece{
		Type:     pieceType,
		Shape:    shape,
		Position: spawnPosition(s.Board.Width(), shape.Size()),
	}

	// ゲームオーバー判定: 新しいピースがスポーン位置で既に衝突している場合
	if !s.Board.Fits(shape, s.CurrentPiece.Position) {
		s.Status = StatusGameOver
		s.logger.Info("spawned piece collides, game over",
			"piece", pieceType, "steps", s.Steps, "pieces", s.PiecesPlaced)
	}
	return nil
}

// spawnPosition は形状を水平方向の中央、最上段に置く位置を返します。
func spawnPosition(boardWidth, shapeSize int) tetris.Position {
	return tetris.Position{X: boardWidth/2 - shapeSize/2, Y: 0}
}

// IsGameOver はゲームオーバー状態かどうかを返します。
func (s *GameState) IsGameOver() bool {
	return s.Status == StatusGameOver
}

// Snapshot は描画側に渡す読み取り専用のビューです。
type Snapshot struct {
	Board         [][]tetris.Cell  `json:"board"`
	PieceType     tetris.PieceType `json:"piece_type"`
	PieceShape    tetris.Shape     `json:"piece_shape"`
	PiecePosition tetris.Position  `json:"piece_position"`
	Status        Status           `json:"status"`
	Steps         int              `json:"steps"`
	PiecesPlaced  int              `json:"pieces_placed"`
}

// Snapshot は現在のボードと落下中のピースのコピーを返します。
// 返り値を変更してもシミュレーションには影響しません。
func (s *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Board:        s.Board.Rows(),
		Status:       s.Status,
		Steps:        s.Steps,
		PiecesPlaced: s.PiecesPlaced,
	}
	if s.CurrentPiece != nil {
		snap.PieceType = s.CurrentPiece.Type
		snap.PieceShape = s.CurrentPiece.Shape.Clone()
		snap.PiecePosition = s.CurrentPiece.Position
	}
	return snap
}
