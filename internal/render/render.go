// Package render はシミュレーションのスナップショットを端末向けの文字列に描画します。
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
	autoplay "github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/tetris"
)

const (
	filledCell = "██"
	emptyCell  = "  "
)

// palette はセルの値ごとの色です。0番は空セルで描画しません。
var palette = []lipgloss.Color{
	"#000000",
	"#FF0D72",
	"#0DC2FF",
	"#0DFF72",
	"#F538FF",
	"#FF8E0D",
	"#FFE138",
	"#3877FF",
}

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("167"))
)

// Color はセルの描画色を返します。空セルや範囲外の値は黒です。
func Color(c tetris.Cell) lipgloss.Color {
	i := c.PaletteIndex()
	if i <= 0 || i >= len(palette) {
		return palette[0]
	}
	return palette[i]
}

// Compose は盤面に落下中のピースを重ねたセルの行列を返します。
// 盤面の外にはみ出したブロックは描画しません。
func Compose(snap autoplay.Snapshot) [][]tetris.Cell {
	rows := make([][]tetris.Cell, len(snap.Board))
	for y, row := range snap.Board {
		rows[y] = append([]tetris.Cell(nil), row...)
	}
	if snap.Status == autoplay.StatusGameOver {
		return rows
	}
	for _, b := range snap.PieceShape.Blocks() {
		p := snap.PiecePosition.Add(b)
		if p.Y < 0 || p.Y >= len(rows) || p.X < 0 || p.X >= len(rows[p.Y]) {
			continue
		}
		rows[p.Y][p.X] = snap.PieceShape[b.Y][b.X]
	}
	return rows
}

// Board は盤面を枠付きで描画します。
func Board(snap autoplay.Snapshot) string {
	var b strings.Builder
	for y, row := range Compose(snap) {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c.IsEmpty() {
				b.WriteString(emptyCell)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(Color(c)).Render(filledCell))
		}
	}
	return boardStyle.Render(b.String())
}

// Stats は盤面の横に表示する集計値です。
type Stats struct {
	AttackPower  int
	LinesCleared int
}

// Panel は集計値と状態を描画します。
func Panel(snap autoplay.Snapshot, stats Stats) string {
	lines := []string{
		titleStyle.Render("GITRIS autoplay"),
		"",
		field("Attack", stats.AttackPower),
		field("Lines", stats.LinesCleared),
		field("Pieces", snap.PiecesPlaced),
		field("Steps", snap.Steps),
		"",
	}
	if snap.Status == autoplay.StatusGameOver {
		lines = append(lines, overStyle.Render("GAME OVER"))
	} else {
		lines = append(lines, labelStyle.Render("Piece: ")+valueStyle.Render(snap.PieceType.String()))
	}
	return strings.Join(lines, "\n")
}

func field(label string, v int) string {
	return labelStyle.Render(fmt.Sprintf("%-7s", label)) + valueStyle.Render(fmt.Sprintf("%d", v))
}

// Frame は盤面とパネルを横に並べた1画面分の文字列を返します。
func Frame(snap autoplay.Snapshot, stats Stats) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, Board(snap), "  ", Panel(snap, stats))
}
