package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// defaultReportEvery は進捗をデバッグログに出す間隔（ステップ数）です。
const defaultReportEvery = 100

// newCLILogger はサブコマンド用のロガーを作成します。
//
// Parameters:
//
//	w       : 出力先（通常は標準エラー出力）
//	verbose : true の場合はデバッグレベル、false の場合は情報レベル
//
// Returns:
//
//	*log.Logger: "autoplay" プレフィックス付きのロガー
func newCLILogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
		Prefix:          "autoplay",
	})
}

// stepReporter はシミュレーションの進み具合を記録します。
// every ステップごとにデバッグログを出し、finish で所要時間と集計をまとめて出力します。
type stepReporter struct {
	logger *log.Logger
	every  int
	start  time.Time
	steps  int
}

func newStepReporter(l *log.Logger, every int) *stepReporter {
	if every <= 0 {
		every = defaultReportEvery
	}
	return &stepReporter{logger: l, every: every, start: time.Now()}
}

// observe は1ステップ終えるごとに呼び出します。
func (r *stepReporter) observe(sum runSummary) {
	r.steps++
	if r.steps%r.every == 0 {
		r.logger.Debug("simulating", "steps", sum.Steps, "lines", sum.LinesCleared, "attack", sum.AttackPower)
	}
}

// finish は結果の集計を所要時間と一緒に出力します。
func (r *stepReporter) finish(sum runSummary) {
	r.logger.Info("simulation finished",
		"steps", sum.Steps,
		"attack", sum.AttackPower,
		"game_over", sum.GameOver,
		"elapsed", time.Since(r.start).Round(time.Millisecond))
}

type loggerKey struct{}

// contextWithLogger は ctx にロガーを持たせます。
func contextWithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFrom は contextWithLogger で持たせたロガーを返します。無ければ log.Default() です。
func loggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
