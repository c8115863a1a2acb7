package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models"
)

// ResultRepository はゲーム結果関連のデータベース操作を定義するインターフェースです。
type ResultRepository interface {
	// CreateResult は新しいゲーム結果レコードを作成し、IDと作成日時を設定します
	CreateResult(ctx context.Context, tx *sql.Tx, result *models.Result) error

	// GetTopResults は上位N件の結果を取得します（攻撃力のランキング用）
	GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error)

	// GetResultBySessionID は指定したセッションの結果を取得します
	GetResultBySessionID(ctx context.Context, sessionID string) (*models.Result, error)
}

// resultRepositoryImpl はResultRepositoryインターフェースの実装です。
type resultRepositoryImpl struct {
	db *sql.DB
}

// NewResultRepository はResultRepositoryの新しいインスタンスを作成します。
func NewResultRepository(db *sql.DB) ResultRepository {
	return &resultRepositoryImpl{db: db}
}

const insertResultQuery = `
	INSERT INTO results (session_id, attack_power, lines_cleared, pieces_placed, steps, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

// CreateResult は新しいゲーム結果レコードを作成します。
func (r *resultRepositoryImpl) CreateResult(ctx context.Context, tx *sql.Tx, result *models.Result) error {
	now := time.Now()
	args := []any{result.SessionID, result.AttackPower, result.LinesCleared, result.PiecesPlaced, result.Steps, now}

	// トランザクションの有無を確認して適切にクエリを実行
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, insertResultQuery, args...)
	} else {
		row = r.db.QueryRowContext(ctx, insertResultQuery, args...)
	}

	if err := row.Scan(&result.ID); err != nil {
		return fmt.Errorf("ゲーム結果レコードの作成に失敗しました: %w", err)
	}
	result.CreatedAt = now
	return nil
}

// GetTopResults は上位N件の結果を取得します（ランキング用）。
func (r *resultRepositoryImpl) GetTopResults(ctx context.Context, limit int) ([]models.ResultResponse, error) {
	query := `
		SELECT
			id, session_id, attack_power, lines_cleared, pieces_placed, steps, created_at,
			ROW_NUMBER() OVER (ORDER BY attack_power DESC, pieces_placed DESC, created_at ASC) as rank
		FROM results
		ORDER BY attack_power DESC, pieces_placed DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := []models.ResultResponse{}
	for rows.Next() {
		var res models.ResultResponse
		err := rows.Scan(&res.ID, &res.SessionID, &res.AttackPower, &res.LinesCleared,
			&res.PiecesPlaced, &res.Steps, &res.CreatedAt, &res.Rank)
		if err != nil {
			return nil, fmt.Errorf("ゲーム結果データのスキャンに失敗しました: %w", err)
		}
		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ゲーム結果取得中にエラーが発生しました: %w", err)
	}

	return results, nil
}

// GetResultBySessionID は指定したセッションの結果を取得します。
// 結果が存在しない場合は nil, nil を返します。
func (r *resultRepositoryImpl) GetResultBySessionID(ctx context.Context, sessionID string) (*models.Result, error) {
	query := `
		SELECT id, session_id, attack_power, lines_cleared, pieces_placed, steps, created_at
		FROM results
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var res models.Result
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&res.ID, &res.SessionID, &res.AttackPower,
		&res.LinesCleared, &res.PiecesPlaced, &res.Steps, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // セッションの結果が存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("セッション結果の取得に失敗しました: %w", err)
	}
	return &res, nil
}
