package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/render"
)

var pieceNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))

// drawShape は形状を格子状に描画します。空のセルは "··" です。
func drawShape(s tetris.Shape) string {
	var b strings.Builder
	for y, row := range s {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c.IsEmpty() {
				b.WriteString("··")
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(render.Color(c)).Render("██"))
		}
	}
	return b.String()
}

// catalog は全ピースを4つの回転すべてで描画します。
func catalog() (string, error) {
	var sections []string
	for _, t := range tetris.AllPieceTypes() {
		shape, err := tetris.NewShape(t)
		if err != nil {
			return "", err
		}
		var rotations []string
		for r := 0; r < 4; r++ {
			rotations = append(rotations, drawShape(shape), "  ")
			shape.Rotate()
		}
		header := pieceNameStyle.Render(fmt.Sprintf("%s (id %d)", t, int(t)))
		sections = append(sections, header+"\n"+lipgloss.JoinHorizontal(lipgloss.Top, rotations...))
	}
	return strings.Join(sections, "\n\n"), nil
}

func (a *app) piecesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pieces",
		Short: "全ピースを4つの回転すべてで表示する",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := catalog()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, out)
			return nil
		},
	}
}
