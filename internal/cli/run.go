package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/render"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/attack"
	autoplay "github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/tetris"
)

// runSummary はシミュレーション1回分の結果です。
type runSummary struct {
	Seed         int64  `json:"seed"`
	Pieces       string `json:"pieces,omitempty"`
	Steps        int    `json:"steps"`
	PiecesPlaced int    `json:"pieces_placed"`
	LinesCleared int    `json:"lines_cleared"`
	AttackPower  int    `json:"attack_power"`
	GameOver     bool   `json:"game_over"`
}

// simulation はゲーム状態と攻撃力カウンターの組です。
type simulation struct {
	setup   autoplay.GameSetup
	state   *autoplay.GameState
	counter *attack.Counter
}

func newSimulation(ctx context.Context, cfg config.Simulation, seed int64, pieces string) (*simulation, error) {
	setup := autoplay.ResolveSetup(cfg, seed, pieces)
	counter := attack.NewCounter(cfg.AttackPerLine)
	state, err := autoplay.NewConfiguredGame(cfg, setup,
		autoplay.WithLineClearListener(counter),
		autoplay.WithLogger(loggerFrom(ctx).WithPrefix("GameState")),
	)
	if err != nil {
		return nil, err
	}
	return &simulation{setup: setup, state: state, counter: counter}, nil
}

// advance は最大 maxSteps ステップ進めます。0 の場合はゲームオーバーまで進めます。
// rep が nil でなければ1ステップごとに進捗を渡します。
func (s *simulation) advance(ctx context.Context, maxSteps int, rep *stepReporter) error {
	for i := 0; maxSteps == 0 || i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.state.IsGameOver() {
			return nil
		}
		if _, err := s.state.AdvanceStep(); err != nil {
			return err
		}
		if rep != nil {
			rep.observe(s.summary())
		}
	}
	return nil
}

// summary は現在までの集計を返します。
func (s *simulation) summary() runSummary {
	return runSummary{
		Seed:         s.setup.Seed,
		Pieces:       s.setup.Pieces,
		Steps:        s.state.Steps,
		PiecesPlaced: s.state.PiecesPlaced,
		LinesCleared: s.counter.Lines(),
		AttackPower:  s.counter.Total(),
		GameOver:     s.state.IsGameOver(),
	}
}

func (s *simulation) stats() render.Stats {
	return render.Stats{AttackPower: s.counter.Total(), LinesCleared: s.counter.Lines()}
}

func (a *app) runCommand() *cobra.Command {
	var (
		steps     int
		seed      int64
		pieces    string
		showBoard   bool
		asJSON      bool
		reportEvery int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "アニメーションなしでシミュレーションし結果を表示する",
		Long:  `積み上がって次のピースが置けなくなるまで（または --steps に達するまで）自動プレイを進め、得た攻撃力を表示します。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sim, err := newSimulation(ctx, a.cfg.Simulation, seed, pieces)
			if err != nil {
				return err
			}

			rep := newStepReporter(loggerFrom(ctx), reportEvery)
			if err := sim.advance(ctx, steps, rep); err != nil {
				return err
			}
			rep.finish(sim.summary())

			return a.printSummary(sim, showBoard, asJSON)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "最大ステップ数（0 はゲームオーバーまで）")
	cmd.Flags().Int64Var(&seed, "seed", 0, "ピース生成の乱数シード")
	cmd.Flags().StringVar(&pieces, "pieces", "", `固定のピース列（例: "TJLOSZI"）`)
	cmd.Flags().BoolVar(&showBoard, "board", false, "最後の盤面を表示する")
	cmd.Flags().BoolVar(&asJSON, "json", false, "結果をJSONで表示する")
	cmd.Flags().IntVar(&reportEvery, "report-every", defaultReportEvery, "進捗をデバッグログに出す間隔（ステップ数）")

	return cmd
}

// printSummary は結果を1行（または --json でJSON）で書き出します。
func (a *app) printSummary(sim *simulation, showBoard, asJSON bool) error {
	sum := sim.summary()
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	if showBoard {
		fmt.Fprintln(a.out, render.Frame(sim.state.Snapshot(), sim.stats()))
	}
	status := "running"
	if sum.GameOver {
		status = "game over"
	}
	fmt.Fprintf(a.out, "seed %d: %d steps, %d pieces, %d lines, attack %d (%s)\n",
		sum.Seed, sum.Steps, sum.PiecesPlaced, sum.LinesCleared, sum.AttackPower, status)
	return nil
}
