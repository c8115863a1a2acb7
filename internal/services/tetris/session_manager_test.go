package tetris

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

// fakeResultRepo は保存された結果をメモリに記録します。
type fakeResultRepo struct {
	mu      sync.Mutex
	results []models.Result
	err     error
}

func (r *fakeResultRepo) CreateResult(_ context.Context, _ *sql.Tx, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	result.ID = int64(len(r.results) + 1)
	r.results = append(r.results, *result)
	return nil
}

func (r *fakeResultRepo) GetTopResults(_ context.Context, limit int) ([]models.ResultResponse, error) {
	return nil, nil
}

func (r *fakeResultRepo) GetResultBySessionID(_ context.Context, sessionID string) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.results {
		if r.results[i].SessionID == sessionID {
			res := r.results[i]
			return &res, nil
		}
	}
	return nil, nil
}

func (r *fakeResultRepo) saved() []models.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Result(nil), r.results...)
}

func testSimulation() config.Simulation {
	return config.Simulation{
		BoardWidth:    tetris.DefaultBoardWidth,
		BoardHeight:   tetris.DefaultBoardHeight,
		StepInterval:  config.Duration{Duration: 10 * time.Millisecond},
		AttackPerLine: 10,
		MaxSessions:   2,
	}
}

func newTestManager(cfg config.Simulation) (*SessionManager, *fakeResultRepo) {
	repo := &fakeResultRepo{}
	return NewSessionManager(cfg, repo, quietLogger()), repo
}

func TestCreateSession(t *testing.T) {
	sm, _ := newTestManager(testSimulation())

	session, err := sm.CreateSession(42, "TJ")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, SessionRunning, session.Status)
	assert.Equal(t, int64(42), session.Seed)
	assert.Equal(t, tetris.TypeT, session.State.CurrentPiece.Type)

	got, ok := sm.GetSession(session.ID)
	require.True(t, ok)
	assert.Same(t, session, got)
}

func TestCreateSession_InvalidPieces(t *testing.T) {
	sm, _ := newTestManager(testSimulation())

	_, err := sm.CreateSession(1, "OX")
	assert.ErrorIs(t, err, tetris.ErrUnknownPieceType)
	assert.Empty(t, sm.ListSessions())
}

func TestCreateSession_MaxSessions(t *testing.T) {
	sm, _ := newTestManager(testSimulation())
	ctx := context.Background()

	first, err := sm.CreateSession(1, "")
	require.NoError(t, err)
	_, err = sm.CreateSession(2, "")
	require.NoError(t, err)

	_, err = sm.CreateSession(3, "")
	assert.ErrorIs(t, err, ErrTooManySessions)

	// 1つ終了させれば再び作成できる
	require.NoError(t, sm.EndSession(ctx, first.ID))
	_, err = sm.CreateSession(3, "")
	assert.NoError(t, err)
}

func TestStep_RunsUntilGameOverAndSavesResult(t *testing.T) {
	sm, repo := newTestManager(testSimulation())
	ctx := context.Background()

	session, err := sm.CreateSession(1, "O")
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		result, err := sm.Step(ctx, session.ID)
		require.NoError(t, err)
		require.False(t, result.GameOver, "step %d", i)
	}
	result, err := sm.Step(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, result.GameOver)

	lw := session.Lightweight()
	assert.Equal(t, SessionFinished, lw.Status)
	require.NotNil(t, lw.EndedAt)
	assert.Equal(t, 10, lw.State.PiecesPlaced)

	saved := repo.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, session.ID, saved[0].SessionID)
	assert.Equal(t, 10, saved[0].PiecesPlaced)
	assert.Equal(t, 0, saved[0].AttackPower)

	_, err = sm.Step(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionFinished)
	assert.Len(t, repo.saved(), 1, "result is saved once")
}

func TestStep_AccumulatesAttackPower(t *testing.T) {
	cfg := testSimulation()
	cfg.BoardWidth = 4 // 横向きのIミノで1段がちょうど埋まる
	sm, _ := newTestManager(cfg)
	ctx := context.Background()

	session, err := sm.CreateSession(1, "I")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := sm.Step(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.LinesCleared)
	}

	lw := session.Lightweight()
	assert.Equal(t, 30, lw.AttackPower)
	assert.Equal(t, 3, lw.LinesCleared)
	assert.Equal(t, SessionRunning, lw.Status)
	require.NotNil(t, lw.LastStep)
	assert.Equal(t, 1, lw.LastStep.LinesCleared)
}

func TestStep_SessionNotFound(t *testing.T) {
	sm, _ := newTestManager(testSimulation())

	_, err := sm.Step(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStep_SaveFailureStillFinishes(t *testing.T) {
	sm, repo := newTestManager(testSimulation())
	repo.err = errors.New("db down")
	ctx := context.Background()

	session, err := sm.CreateSession(1, "O")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := sm.Step(ctx, session.ID)
		require.NoError(t, err)
	}

	assert.False(t, session.Running())
}

// blockingResultRepo は release が閉じられるまで CreateResult を返しません。
type blockingResultRepo struct {
	fakeResultRepo
	entered chan struct{}
	release chan struct{}
}

func (r *blockingResultRepo) CreateResult(ctx context.Context, tx *sql.Tx, result *models.Result) error {
	close(r.entered)
	<-r.release
	return r.fakeResultRepo.CreateResult(ctx, tx, result)
}

func TestStep_SavesResultWithoutHoldingSessionLock(t *testing.T) {
	repo := &blockingResultRepo{entered: make(chan struct{}), release: make(chan struct{})}
	sm := NewSessionManager(testSimulation(), repo, quietLogger())
	ctx := context.Background()

	session, err := sm.CreateSession(1, "O")
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		_, err := sm.Step(ctx, session.ID)
		require.NoError(t, err)
	}

	stepDone := make(chan struct{})
	go func() {
		defer close(stepDone)
		_, _ = sm.Step(ctx, session.ID)
	}()

	select {
	case <-repo.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("result was not saved")
	}

	// 保存の完了を待っている間もセッションの状態は読める
	read := make(chan LightweightGameState, 1)
	go func() { read <- session.Lightweight() }()
	select {
	case lw := <-read:
		assert.Equal(t, SessionFinished, lw.Status)
	case <-time.After(time.Second):
		t.Fatal("session state blocked while the result is being saved")
	}
	assert.False(t, session.Running())

	close(repo.release)
	<-stepDone
	assert.Len(t, repo.saved(), 1)
}

func TestEndSession(t *testing.T) {
	sm, repo := newTestManager(testSimulation())
	ctx := context.Background()

	session, err := sm.CreateSession(1, "T")
	require.NoError(t, err)
	_, err = sm.Step(ctx, session.ID)
	require.NoError(t, err)

	require.NoError(t, sm.EndSession(ctx, session.ID))

	_, ok := sm.GetSession(session.ID)
	assert.False(t, ok)
	saved := repo.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].PiecesPlaced)

	assert.ErrorIs(t, sm.EndSession(ctx, session.ID), ErrSessionNotFound)
}

func TestListSessions(t *testing.T) {
	sm, _ := newTestManager(testSimulation())

	first, err := sm.CreateSession(1, "")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := sm.CreateSession(2, "")
	require.NoError(t, err)

	states := sm.ListSessions()
	require.Len(t, states, 2)
	assert.Equal(t, first.ID, states[0].ID)
	assert.Equal(t, second.ID, states[1].ID)
}

func TestTick_AdvancesRunningSessions(t *testing.T) {
	sm, _ := newTestManager(testSimulation())
	ctx := context.Background()

	a, err := sm.CreateSession(1, "T")
	require.NoError(t, err)
	b, err := sm.CreateSession(2, "S")
	require.NoError(t, err)

	sm.Tick(ctx)
	sm.Tick(ctx)

	assert.Equal(t, 2, a.Lightweight().State.Steps)
	assert.Equal(t, 2, b.Lightweight().State.Steps)
}

func TestRegisterClient_UnknownSession(t *testing.T) {
	sm, _ := newTestManager(testSimulation())

	err := sm.RegisterClient("missing", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// spectatorMessage は観戦クライアントが受け取るメッセージのうちテストで見る部分です。
type spectatorMessage struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	State  struct {
		Steps int `json:"steps"`
	} `json:"state"`
}

func TestRun_BroadcastsToSpectators(t *testing.T) {
	cfg := testSimulation()
	cfg.BoardWidth = 4
	sm, _ := newTestManager(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sm.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	session, err := sm.CreateSession(1, "I")
	require.NoError(t, err)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := sm.RegisterClient(session.ID, conn); err != nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var steps []int
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg spectatorMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, session.ID, msg.ID)
		assert.Equal(t, string(SessionRunning), msg.Status)
		steps = append(steps, msg.State.Steps)
	}
	assert.Greater(t, steps[2], steps[0])
}
