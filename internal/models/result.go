package models

import (
	"time"
)

// Result はresultsテーブルのレコードに対応する構造体です。
// 自動プレイのセッションが終了したときの成績を保持します。
type Result struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"` // UUID
	AttackPower  int       `json:"attack_power"`
	LinesCleared int       `json:"lines_cleared"`
	PiecesPlaced int       `json:"pieces_placed"`
	Steps        int       `json:"steps"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultResponse はAPI レスポンス用の構造体です。
type ResultResponse struct {
	Result
	Rank int `json:"rank"` // ランキング順位
}
