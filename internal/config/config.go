// Package config はサーバーとCLIの設定を環境変数とTOMLファイルから読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/attack"
)

// DefaultStepInterval は自動プレイの1ステップの間隔です（0.2秒ごとに動かす）。
const DefaultStepInterval = 200 * time.Millisecond

// Duration はTOMLで "200ms" のように書ける time.Duration です。
type Duration struct {
	time.Duration
}

// UnmarshalText は "200ms" のような文字列を読み込みます。
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText は "200ms" のような文字列を返します。
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Simulation は自動プレイのシミュレーション設定です。
type Simulation struct {
	BoardWidth    int      `toml:"board_width"`
	BoardHeight   int      `toml:"board_height"`
	StepInterval  Duration `toml:"step_interval"`
	Seed          int64    `toml:"seed"`            // 0 の場合は現在時刻
	Pieces        string   `toml:"pieces"`          // 空の場合はランダム、"IOT" のように指定すると繰り返し
	AttackPerLine int      `toml:"attack_per_line"` // 1ラインあたりの攻撃力
	MaxSessions   int      `toml:"max_sessions"`    // 同時に動かすセッションの上限
}

// Server はAPIサーバーの設定です。
type Server struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	BypassAuth     bool
	AllowedOrigins []string
}

// Config はアプリケーション全体の設定です。
type Config struct {
	Simulation Simulation `toml:"simulation"`
	Server     Server     `toml:"-"`
}

// Default は既定値の設定を返します。
func Default() Config {
	return Config{
		Simulation: Simulation{
			BoardWidth:    tetris.DefaultBoardWidth,
			BoardHeight:   tetris.DefaultBoardHeight,
			StepInterval:  Duration{DefaultStepInterval},
			AttackPerLine: attack.DefaultPowerPerLine,
			MaxSessions:   64,
		},
		Server: Server{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// LoadDotEnv は本番環境以外で .env ファイルを読み込みます。
// ファイルがない場合は警告のみで続行するため、エラーを返すだけで失敗にはしません。
func LoadDotEnv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file (this is fine in production): %w", err)
	}
	return nil
}

// Load は既定値に TOML ファイル（path が空なら AUTOPLAY_CONFIG）と環境変数を重ねた設定を返します。
//
// Parameters:
//
//	path : シミュレーション設定のTOMLファイルのパス（空の場合は AUTOPLAY_CONFIG、それも空なら読み込まない）
//
// Returns:
//
//	Config: 読み込んだ設定
//	error: ファイルの読み込みや値の検証に失敗した場合
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("AUTOPLAY_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("設定ファイル %s の読み込みに失敗しました: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	cfg.Server.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.Server.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Server.BypassAuth = os.Getenv("BYPASS_AUTH") == "true"
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	if v := os.Getenv("STEP_INTERVAL"); v != "" {
		if err := cfg.Simulation.StepInterval.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("STEP_INTERVAL: %w", err)
		}
	}

	if err := cfg.Simulation.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate はシミュレーション設定の値を検証します。
func (s Simulation) Validate() error {
	var errs []error
	if s.BoardWidth <= 0 || s.BoardHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: %dx%d", tetris.ErrInvalidDimensions, s.BoardWidth, s.BoardHeight))
	}
	if s.StepInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("step_interval must be positive, got %s", s.StepInterval.Duration))
	}
	if s.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("max_sessions must be positive, got %d", s.MaxSessions))
	}
	if s.Pieces != "" {
		if _, err := tetris.ParsePieceSequence(s.Pieces); err != nil {
			errs = append(errs, fmt.Errorf("pieces: %w", err))
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
