package cli

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/render"
)

var watchHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// tickMsg を受け取るたびにシミュレーションを1ステップ進めます。
type tickMsg time.Time

// watchModel はシミュレーションを再生する bubbletea のモデルです。
// 受け付ける入力は終了キーだけです。
type watchModel struct {
	sim      *simulation
	interval time.Duration
	err      error
}

func newWatchModel(sim *simulation, interval time.Duration) watchModel {
	return watchModel{sim: sim, interval: interval}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		if m.sim.state.IsGameOver() {
			return m, nil
		}
		if _, err := m.sim.state.AdvanceStep(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.sim.state.IsGameOver() {
			// 最後の盤面を表示したまま終了キーを待つ
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(render.Frame(m.sim.state.Snapshot(), m.sim.stats()))
	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func (a *app) watchCommand() *cobra.Command {
	var (
		seed     int64
		pieces   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "ターミナル上でシミュレーションを再生する",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sim, err := newSimulation(ctx, a.cfg.Simulation, seed, pieces)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.Simulation.StepInterval.Duration
			}

			p := tea.NewProgram(newWatchModel(sim, interval), tea.WithContext(ctx), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(watchModel); ok && m.err != nil {
				return m.err
			}
			loggerFrom(ctx).Debug("watch finished", "steps", sim.state.Steps, "attack", sim.counter.Total())
			return a.printSummary(sim, false, false)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "ピース生成の乱数シード")
	cmd.Flags().StringVar(&pieces, "pieces", "", `固定のピース列（例: "TJLOSZI"）`)
	cmd.Flags().DurationVar(&interval, "interval", 0, "ステップの間隔（既定は設定値の200ms）")

	return cmd
}
