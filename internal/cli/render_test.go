package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTable_AlignsMultibyteCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Categoria", "Total"},
		Rows: [][]string{
			{"I - Equipamentos", "R$ 1.000,00"},
			{"---"},
			{"Serviços", "R$ 5,00"},
		},
		Indent: map[int]bool{2: true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != width {
			t.Errorf("line %d width %d, want %d: %q", i, w, width, l)
		}
	}
	if !strings.Contains(out, "  Serviços") {
		t.Errorf("indented row missing:\n%s", out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Fatalf("RenderTable(empty) = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	got := []rune(RenderSparkline([]float64{0, 50, 100}))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != '▁' || got[2] != '█' {
		t.Fatalf("sparkline = %q", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Fatal("nil series should render empty")
	}
}

func TestRenderShareBar(t *testing.T) {
	if w := lipgloss.Width(RenderShareBar(25, 100, 20)); w != 20 {
		t.Fatalf("width = %d, want 20", w)
	}
	if got := RenderShareBar(0, 100, 8); got != strings.Repeat(" ", 8) {
		t.Fatalf("zero share = %q", got)
	}
	if w := lipgloss.Width(RenderShareBar(500, 100, 10)); w != 10 {
		t.Fatalf("overfull width = %d, want 10", w)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(1, 0, 10); got != "" {
		t.Fatalf("zero total = %q", got)
	}
	if got := RenderProgressBar(1500, 3000, 10); !strings.HasSuffix(got, "1.500/3.000") {
		t.Fatalf("progress = %q", got)
	}
}
