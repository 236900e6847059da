package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 5, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	if !strings.Contains(out, "4.0") || !strings.Contains(out, "0.0") {
		t.Fatalf("expected shared axis labels in output:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "A"}}, 10, 4); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty series, got %q", buf.String())
	}
}

func TestResampleSeries(t *testing.T) {
	down := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if down[0] != 2 || down[1] != 6 {
		t.Fatalf("unexpected downsample: %v", down)
	}
	up := resampleSeries([]float64{0, 10}, 3)
	if up[0] != 0 || up[1] != 5 || up[2] != 10 {
		t.Fatalf("unexpected upsample: %v", up)
	}
}
