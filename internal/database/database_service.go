package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// schema は results テーブルの定義です。
const schema = `
CREATE TABLE IF NOT EXISTS results (
	id            BIGSERIAL PRIMARY KEY,
	session_id    UUID        NOT NULL,
	attack_power  INTEGER     NOT NULL DEFAULT 0,
	lines_cleared INTEGER     NOT NULL DEFAULT 0,
	pieces_placed INTEGER     NOT NULL DEFAULT 0,
	steps         INTEGER     NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS results_attack_power_idx ON results (attack_power DESC);
`

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB     *sql.DB
	logger *log.Logger
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
func NewDatabaseService(ctx context.Context, databaseURL string) (*DatabaseService, error) {
	logger := log.Default().WithPrefix("DatabaseService")
	logger.Info("データベース接続を試行中", "url", databaseURL[:min(len(databaseURL), 20)]+"...") // URLの冒頭をログ出力

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// データベース接続の確認 (Ping)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	logger.Info("データベースに正常に接続しました。")
	return &DatabaseService{DB: db, logger: logger}, nil
}

// EnsureSchema creates the results table when it does not exist yet.
func (s *DatabaseService) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
	}
	s.logger.Info("results テーブルを確認しました。")
	return nil
}

// Version returns the server version string (used by the connection check tool).
func (s *DatabaseService) Version(ctx context.Context) (string, error) {
	var version string
	if err := s.DB.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("SELECT version() クエリの実行に失敗しました: %w", err)
	}
	return version, nil
}

// Close closes the underlying connection pool.
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
