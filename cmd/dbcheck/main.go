package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/database"
)

func main() {
	// .envファイルを読み込む (開発環境の場合)
	if err := config.LoadDotEnv(); err != nil {
		log.Warn("continuing without .env", "err", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewDatabaseService(ctx, databaseURL)
	if err != nil {
		log.Fatal("エラー: データベースに接続できません", "err", err)
	}
	defer db.Close()

	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	if version, err := db.Version(ctx); err != nil {
		log.Warn("警告: バージョンの取得に失敗しました", "err", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("エラー: results テーブルを作成できません", "err", err)
	}
	fmt.Println("results テーブルの準備ができました。")
}
