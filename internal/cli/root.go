package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
)

var (
	version string // バージョン（例: "v1.2.3"）
	commit  string // gitのコミットSHA
	date    string // ビルド日時
)

// SetVersion は --version で表示するバージョン情報を設定します。
// main から ldflags で埋め込んだ値を渡してください。
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app は全サブコマンドで共有する設定と出力先です。
type app struct {
	cfg config.Config
	out io.Writer
}

// Execute は autoplay のCLIを実行します。
// ログは標準エラー出力に情報レベルで出し、--verbose (-v) の場合はデバッグレベルにします。
// Ctrl+C を受け取るとコンテキストがキャンセルされます。
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd(os.Stdout).ExecuteContext(ctx)
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)
	a := &app{cfg: config.Default(), out: out}

	root := &cobra.Command{
		Use:          "autoplay",
		Short:        "落ち物パズルを自動でプレイする",
		Long:         `autoplay は落ちてくるピースを自動で配置してそろった行を消し、得た攻撃力を表示します。`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := newCLILogger(cmd.ErrOrStderr(), verbose)
			cmd.SetContext(contextWithLogger(cmd.Context(), logger))

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Debug("config loaded", "path", configPath,
				"board", fmt.Sprintf("%dx%d", cfg.Simulation.BoardWidth, cfg.Simulation.BoardHeight))
			return nil
		},
	}

	root.SetOut(out)
	root.SetVersionTemplate(fmt.Sprintf("autoplay %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOMLの設定ファイルのパス（既定は $AUTOPLAY_CONFIG）")

	root.AddCommand(a.runCommand())
	root.AddCommand(a.watchCommand())
	root.AddCommand(a.piecesCommand())

	return root
}
