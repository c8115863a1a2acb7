package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/database"
)

// ResultHandler はゲーム結果関連のハンドラーを管理する構造体です。
type ResultHandler struct {
	resultRepo database.ResultRepository
	logger     *log.Logger
}

// NewResultHandler は新しいResultHandlerインスタンスを作成します。
// resultRepo が nil の場合（データベース未設定）は 503 を返します。
func NewResultHandler(resultRepo database.ResultRepository) *ResultHandler {
	return &ResultHandler{
		resultRepo: resultRepo,
		logger:     log.Default().WithPrefix("ResultHandler"),
	}
}

// GetTopResults は攻撃力の上位ランキングを取得するハンドラーです。
// GET /api/results?limit=50
func (h *ResultHandler) GetTopResults(w http.ResponseWriter, r *http.Request) {
	if h.resultRepo == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "データベースが設定されていません")
		return
	}

	// limitパラメータを取得（デフォルト50）
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	results, err := h.resultRepo.GetTopResults(r.Context(), limit)
	if err != nil {
		h.logger.Error("ゲーム結果取得エラー", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム結果取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// GetSessionResult は指定したセッションの結果を取得するハンドラーです。
// GET /api/results/{sessionID}
func (h *ResultHandler) GetSessionResult(w http.ResponseWriter, r *http.Request) {
	if h.resultRepo == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "データベースが設定されていません")
		return
	}

	sessionID := mux.Vars(r)["sessionID"]
	// session_id はUUID列なので、UUIDでないIDは問い合わせずに見つからない扱いにする
	if _, err := uuid.Parse(sessionID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "このセッションの結果はまだありません")
		return
	}
	result, err := h.resultRepo.GetResultBySessionID(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("セッション結果取得エラー", "session", sessionID, "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッション結果取得に失敗しました")
		return
	}
	if result == nil {
		WriteErrorResponse(w, http.StatusNotFound, "このセッションの結果はまだありません")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}
