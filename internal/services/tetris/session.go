package tetris

import (
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/attack"
)

// SessionStatus はセッションの進行状態です。
type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"  // ステップ実行中
	SessionFinished SessionStatus = "finished" // ゲームオーバーまたは終了済み
)

// GameSession は1つの自動プレイのセッションです。
// GameState への操作はすべて mu で直列化されます。
type GameSession struct {
	ID        string
	Status    SessionStatus
	Seed      int64
	Pieces    string // 固定のピース列（空ならランダム）
	State     *GameState
	Attack    *attack.Counter
	StartedAt time.Time
	EndedAt   time.Time
	LastStep  *StepResult

	mu sync.Mutex
}

// Running はセッションがまだステップを進められるかどうかを返します。
func (s *GameSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status == SessionRunning
}

// LightweightGameState はWebSocketやAPIで送信する軽量なセッション状態です。
// 描画に必要な盤面のスナップショットと集計値のみを含みます。
type LightweightGameState struct {
	ID           string        `json:"id"`
	Status       SessionStatus `json:"status"`
	Seed         int64         `json:"seed"`
	State        Snapshot      `json:"state"`
	AttackPower  int           `json:"attack_power"`
	LinesCleared int           `json:"lines_cleared"`
	LastStep     *StepResult   `json:"last_step,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
}

// Lightweight は現在のセッション状態のコピーを返します。
func (s *GameSession) Lightweight() LightweightGameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lightweightLocked()
}

func (s *GameSession) lightweightLocked() LightweightGameState {
	lw := LightweightGameState{
		ID:           s.ID,
		Status:       s.Status,
		Seed:         s.Seed,
		State:        s.State.Snapshot(),
		AttackPower:  s.Attack.Total(),
		LinesCleared: s.Attack.Lines(),
		StartedAt:    s.StartedAt,
	}
	if s.LastStep != nil {
		last := *s.LastStep
		lw.LastStep = &last
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		lw.EndedAt = &ended
	}
	return lw
}

// result はデータベースに保存するためのゲーム結果を作成します。
func (s *GameSession) result() *models.Result {
	return &models.Result{
		SessionID:    s.ID,
		AttackPower:  s.Attack.Total(),
		LinesCleared: s.Attack.Lines(),
		PiecesPlaced: s.State.PiecesPlaced,
		Steps:        s.State.Steps,
	}
}
