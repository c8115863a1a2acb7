package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/tetris"
)

// NewRouter はAPIサーバーのルーティングを構築します。
//
// Parameters:
//
//	cfg        : サーバー設定（認証とCORS）
//	sm         : セッションマネージャー
//	resultRepo : 結果リポジトリ（nil可）
//
// Returns:
//
//	http.Handler: CORSを適用したルーター
func NewRouter(cfg config.Server, sm *tetris.SessionManager, resultRepo database.ResultRepository) http.Handler {
	gameHandler := NewGameHandler(sm, cfg.AllowedOrigins)
	resultHandler := NewResultHandler(resultRepo)
	auth := middleware.Auth(cfg.JWTSecret, cfg.BypassAuth)

	r := mux.NewRouter()
	r.Use(recoverer)

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public", PublicHandlerFunc).Methods(http.MethodGet)
	r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods(http.MethodGet)
	r.HandleFunc("/api/results/{sessionID}", resultHandler.GetSessionResult).Methods(http.MethodGet)

	sessions := r.PathPrefix("/api/sessions").Subrouter()
	sessions.HandleFunc("", gameHandler.ListSessions).Methods(http.MethodGet)
	sessions.HandleFunc("/{sessionID}", gameHandler.GetSession).Methods(http.MethodGet)

	// セッションを変更する操作は認証が必要
	sessions.Handle("", auth(http.HandlerFunc(gameHandler.CreateSession))).Methods(http.MethodPost)
	sessions.Handle("/{sessionID}/step", auth(http.HandlerFunc(gameHandler.StepSession))).Methods(http.MethodPost)
	sessions.Handle("/{sessionID}", auth(http.HandlerFunc(gameHandler.EndSession))).Methods(http.MethodDelete)

	// WebSocket (観戦は認証不要)
	r.HandleFunc("/ws/sessions/{sessionID}", gameHandler.HandleWebSocketConnection).Methods(http.MethodGet)

	return middleware.CORSHandler(cfg.AllowedOrigins)(r)
}

// recoverer はハンドラー内のpanicをログに記録し、500を返します。
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic in handler", "method", r.Method, "path", r.URL.Path, "panic", rec)
				WriteErrorResponse(w, http.StatusInternalServerError, "内部エラーが発生しました")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
