package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/api/middleware"
	tetrismodels "github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/tetris"
)

// GameHandler は自動プレイのセッション関連のHTTPリクエスト（作成、参照、ステップ、観戦）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager
	upgrader       websocket.Upgrader
	logger         *log.Logger
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//
//	sm             : セッションマネージャーへのポインタ
//	allowedOrigins : WebSocket接続を許可するオリジン（空の場合はすべて許可）
//
// Returns:
//
//	*GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
		logger: log.Default().WithPrefix("GameHandler"),
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// createSessionRequest はセッション作成のリクエストボディです。どちらも省略可能です。
type createSessionRequest struct {
	Seed   int64  `json:"seed"`
	Pieces string `json:"pieces"`
}

// CreateSession は新しい自動プレイのセッションを作成します。
// POST /api/sessions
func (h *GameHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}

	session, err := h.sessionManager.CreateSession(req.Seed, req.Pieces)
	switch {
	case errors.Is(err, tetrismodels.ErrUnknownPieceType):
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, tetris.ErrTooManySessions):
		WriteErrorResponse(w, http.StatusTooManyRequests, "同時に実行できるセッション数の上限に達しました")
		return
	case err != nil:
		h.logger.Error("failed to create session", "user", userID, "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッションの作成に失敗しました")
		return
	}

	h.logger.Info("session created", "user", userID, "session", session.ID)
	WriteJSONResponse(w, http.StatusCreated, map[string]string{"session_id": session.ID, "message": "セッションを作成しました"})
}

// ListSessions は全セッションの状態を返します。
// GET /api/sessions
func (h *GameHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"sessions": h.sessionManager.ListSessions()})
}

// GetSession は指定したセッションの現在の状態を返します。
// GET /api/sessions/{sessionID}
func (h *GameHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionManager.GetSession(mux.Vars(r)["sessionID"])
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}
	WriteJSONResponse(w, http.StatusOK, session.Lightweight())
}

// StepSession はタイマーを待たずにセッションを1ステップ進めます。
// POST /api/sessions/{sessionID}/step
func (h *GameHandler) StepSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	result, err := h.sessionManager.Step(r.Context(), sessionID)
	switch {
	case errors.Is(err, tetris.ErrSessionNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	case errors.Is(err, tetris.ErrSessionFinished):
		WriteErrorResponse(w, http.StatusConflict, "セッションは既に終了しています")
		return
	case err != nil:
		h.logger.Error("step failed", "session", sessionID, "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ステップの実行に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, result)
}

// EndSession はセッションを終了させて削除します。
// DELETE /api/sessions/{sessionID}
func (h *GameHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if err := h.sessionManager.EndSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, tetris.ErrSessionNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, "セッションの終了に失敗しました")
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "セッションを終了しました"})
}

// HandleWebSocketConnection はHTTP接続をWebSocketにアップグレードし、セッションの観戦クライアントとして登録します。
// GET /ws/sessions/{sessionID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if _, ok := h.sessionManager.GetSession(sessionID); !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}

	// HTTP接続をWebSocket接続にアップグレード
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", "session", sessionID, "err", err)
		return // アップグレード失敗時はUpgraderがエラーレスポンスを書き込む
	}

	// 以降の接続はSessionManagerが管理する
	if err := h.sessionManager.RegisterClient(sessionID, conn); err != nil {
		h.logger.Warn("failed to register spectator", "session", sessionID, "err", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		conn.Close()
	}
}
