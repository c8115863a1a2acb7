package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/attack"
)

var (
	// ErrSessionNotFound は指定したIDのセッションが存在しないことを表します。
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionFinished は終了済みのセッションを進めようとしたことを表します。
	ErrSessionFinished = errors.New("session already finished")
	// ErrTooManySessions は同時実行できるセッション数の上限に達したことを表します。
	ErrTooManySessions = errors.New("too many running sessions")
	// ErrManagerClosed はシャットダウン後の SessionManager を使おうとしたことを表します。
	ErrManagerClosed = errors.New("session manager is shut down")
)

// SessionManager は自動プレイのセッションと観戦用のWebSocketクライアントを管理します。
// アプリケーション内でシングルトンとして動作し、Run のタイマーで全セッションを一定間隔で進めます。
type SessionManager struct {
	cfg        config.Simulation
	sessions   map[string]*GameSession         // sessionID -> GameSession
	clients    map[string]map[*Client]struct{} // sessionID -> 観戦クライアント
	register   chan *Client                    // クライアント登録リクエスト用チャネル
	unregister chan *Client                    // クライアント登録解除リクエスト用チャネル
	quit       chan struct{}                   // シャットダウン用チャネル
	quitOnce   sync.Once
	mu         sync.RWMutex              // sessions と clients マップへのアクセスを保護
	resultRepo database.ResultRepository // 終了したセッションの結果の保存先（nil の場合は保存しない）
	logger     *log.Logger
}

// NewSessionManager は新しい SessionManager を作成します。
// ステップの実行を始めるには Run をゴルーチンで呼び出してください。
//
// Parameters:
//
//	cfg        : シミュレーション設定
//	resultRepo : 結果の保存先（nil可）
//	logger     : ロガー（nil の場合は既定のロガー）
//
// Returns:
//
//	*SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(cfg config.Simulation, resultRepo database.ResultRepository, logger *log.Logger) *SessionManager {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionManager{
		cfg:        cfg,
		sessions:   make(map[string]*GameSession),
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		resultRepo: resultRepo,
		logger:     logger.WithPrefix("SessionManager"),
	}
}

// Run は SessionManager のメインイベントループです。
// クライアントの登録と解除を処理し、StepInterval ごとに実行中の全セッションを1ステップ進めます。
// ctx がキャンセルされるか Shutdown が呼ばれると戻ります。
func (sm *SessionManager) Run(ctx context.Context) {
	interval := sm.cfg.StepInterval.Duration
	if interval <= 0 {
		interval = config.DefaultStepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.logger.Info("session loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			sm.Shutdown()
			return
		case <-sm.quit:
			return
		case client := <-sm.register:
			sm.addClient(client)
		case client := <-sm.unregister:
			sm.removeClient(client)
		case <-ticker.C:
			sm.Tick(ctx)
		}
	}
}

// Tick は実行中の全セッションを1ステップずつ進めます。
func (sm *SessionManager) Tick(ctx context.Context) {
	sm.mu.RLock()
	running := make([]*GameSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		if s.Running() {
			running = append(running, s)
		}
	}
	sm.mu.RUnlock()

	for _, s := range running {
		if _, err := sm.step(ctx, s); err != nil && !errors.Is(err, ErrSessionFinished) {
			sm.logger.Error("step failed", "session", s.ID, "err", err)
		}
	}
}

// CreateSession は新しい自動プレイのセッションを作成します。
//
// Parameters:
//
//	seed   : ピース生成の乱数シード（0 の場合は設定値、それも0なら現在時刻）
//	pieces : "TJLOSZI" のようなピース列（空の場合は設定値、それも空ならランダム）
//
// Returns:
//
//	*GameSession: 作成されたセッション
//	error: ピース列が不正、または同時実行数の上限に達した場合
func (sm *SessionManager) CreateSession(seed int64, pieces string) (*GameSession, error) {
	setup := ResolveSetup(sm.cfg, seed, pieces)
	id := uuid.New().String()
	counter := attack.NewCounter(sm.cfg.AttackPerLine)
	state, err := NewConfiguredGame(sm.cfg, setup,
		WithLineClearListener(counter),
		WithLogger(sm.logger.With("session", id)),
	)
	if err != nil {
		return nil, fmt.Errorf("ゲーム状態の初期化に失敗しました: %w", err)
	}

	session := &GameSession{
		ID:        id,
		Status:    SessionRunning,
		Seed:      setup.Seed,
		Pieces:    setup.Pieces,
		State:     state,
		Attack:    counter,
		StartedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.cfg.MaxSessions > 0 && sm.runningLocked() >= sm.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	sm.sessions[id] = session
	sm.logger.Info("session created", "session", id, "seed", setup.Seed, "pieces", setup.Pieces)
	return session, nil
}

func (sm *SessionManager) runningLocked() int {
	n := 0
	for _, s := range sm.sessions {
		if s.Running() {
			n++
		}
	}
	return n
}

// GetSession は指定されたIDのセッションを取得します。
func (sm *SessionManager) GetSession(id string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// ListSessions は全セッションの状態を開始時刻の古い順に返します。
func (sm *SessionManager) ListSessions() []LightweightGameState {
	sm.mu.RLock()
	sessions := make([]*GameSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	states := make([]LightweightGameState, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.Lightweight())
	}
	slices.SortFunc(states, func(a, b LightweightGameState) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return states
}

// Step は指定したセッションを手動で1ステップ進めます。
//
// Returns:
//
//	StepResult: このステップの結果
//	error: セッションが存在しない場合は ErrSessionNotFound、終了済みの場合は ErrSessionFinished
func (sm *SessionManager) Step(ctx context.Context, id string) (StepResult, error) {
	s, ok := sm.GetSession(id)
	if !ok {
		return StepResult{}, ErrSessionNotFound
	}
	return sm.step(ctx, s)
}

func (sm *SessionManager) step(ctx context.Context, s *GameSession) (StepResult, error) {
	s.mu.Lock()
	if s.Status != SessionRunning {
		s.mu.Unlock()
		return StepResult{}, ErrSessionFinished
	}

	result, err := s.State.AdvanceStep()
	if err != nil && !errors.Is(err, ErrGameOver) {
		s.mu.Unlock()
		return result, fmt.Errorf("セッション %s のステップに失敗しました: %w", s.ID, err)
	}
	s.LastStep = &result
	var finished *models.Result
	if s.State.IsGameOver() {
		finished = sm.finishLocked(s)
	}
	s.mu.Unlock()

	sm.saveResult(ctx, finished)
	sm.BroadcastGameState(s.ID)
	return result, nil
}

// finishLocked はセッションを終了済みにし、保存する結果を返します。s.mu を保持した状態で呼び出してください。
// 既に終了済みの場合は nil を返します。
func (sm *SessionManager) finishLocked(s *GameSession) *models.Result {
	if s.Status == SessionFinished {
		return nil
	}
	s.Status = SessionFinished
	s.EndedAt = time.Now()
	sm.logger.Info("session finished", "session", s.ID,
		"attack", s.Attack.Total(), "lines", s.Attack.Lines(), "pieces", s.State.PiecesPlaced)
	return s.result()
}

// saveResult は終了したセッションの結果を保存します。
// データベースの待ち時間でステップや観戦が止まらないよう、s.mu を解放してから呼び出してください。
func (sm *SessionManager) saveResult(ctx context.Context, res *models.Result) {
	if res == nil || sm.resultRepo == nil {
		return
	}
	if err := sm.resultRepo.CreateResult(ctx, nil, res); err != nil {
		// 結果の保存に失敗してもセッションの終了は取り消さない
		sm.logger.Error("failed to save result", "session", res.SessionID, "err", err)
	}
}

// EndSession はセッションを終了させ、管理対象から削除します。
// 実行中だった場合は、その時点の結果を保存します。
func (sm *SessionManager) EndSession(ctx context.Context, id string) error {
	s, ok := sm.GetSession(id)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	finished := sm.finishLocked(s)
	s.mu.Unlock()
	sm.saveResult(ctx, finished)

	// 観戦クライアントに最後の状態を送ってから切断する
	sm.BroadcastGameState(id)

	sm.mu.Lock()
	for c := range sm.clients[id] {
		c.SafeClose()
	}
	delete(sm.clients, id)
	delete(sm.sessions, id)
	sm.mu.Unlock()

	sm.logger.Info("session removed", "session", id)
	return nil
}

// RegisterClient はWebSocket接続をセッションの観戦クライアントとして登録します。
// 登録後、現在の状態が送信され、以降はステップごとに状態が送信されます。
func (sm *SessionManager) RegisterClient(sessionID string, conn *websocket.Conn) error {
	if _, ok := sm.GetSession(sessionID); !ok {
		return ErrSessionNotFound
	}

	client := &Client{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}

	select {
	case sm.register <- client:
	case <-sm.quit:
		return ErrManagerClosed
	}

	go sm.writePump(client)
	go sm.readPump(client)
	return nil
}

func (sm *SessionManager) unregisterClient(c *Client) {
	select {
	case sm.unregister <- c:
	case <-sm.quit:
	}
}

func (sm *SessionManager) addClient(c *Client) {
	sm.mu.Lock()
	s, ok := sm.sessions[c.SessionID]
	if !ok {
		// 登録待ちの間にセッションが削除された
		sm.mu.Unlock()
		c.SafeClose()
		return
	}
	if sm.clients[c.SessionID] == nil {
		sm.clients[c.SessionID] = make(map[*Client]struct{})
	}
	sm.clients[c.SessionID][c] = struct{}{}
	sm.mu.Unlock()

	sm.logger.Debug("client registered", "client", c.ID, "session", c.SessionID)
	if msg, err := json.Marshal(s.Lightweight()); err == nil {
		c.SafeSend(msg)
	}
}

func (sm *SessionManager) removeClient(c *Client) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if clients, ok := sm.clients[c.SessionID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(sm.clients, c.SessionID)
		}
	}
	c.SafeClose()
	sm.logger.Debug("client unregistered", "client", c.ID, "session", c.SessionID)
}

// BroadcastGameState はセッションの現在の状態を全観戦クライアントに送信します。
func (sm *SessionManager) BroadcastGameState(id string) {
	s, ok := sm.GetSession(id)
	if !ok {
		return
	}

	sm.mu.RLock()
	n := len(sm.clients[id])
	sm.mu.RUnlock()
	if n == 0 {
		return
	}

	msg, err := json.Marshal(s.Lightweight())
	if err != nil {
		sm.logger.Error("failed to marshal game state", "session", id, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for c := range sm.clients[id] {
		if !c.SafeSend(msg) {
			sm.logger.Debug("dropped state for slow client", "client", c.ID, "session", id)
		}
	}
}

// Shutdown はSessionManagerを安全にシャットダウンします。
// 全クライアントを切断しますが、セッションの結果は保存しません。
func (sm *SessionManager) Shutdown() {
	sm.quitOnce.Do(func() {
		close(sm.quit)

		sm.mu.Lock()
		for _, clients := range sm.clients {
			for c := range clients {
				c.SafeClose()
			}
		}
		sm.clients = make(map[string]map[*Client]struct{})
		sm.mu.Unlock()

		sm.logger.Info("session manager shut down")
	})
}
