package seamcarve

import (
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/stat"
)

// Timings holds the duration of every carving stage, one sample per removed seam.
type Timings struct {
	Energy []time.Duration
	Search []time.Duration
	Remove []time.Duration
}

func (t *Timings) add(energy, search, remove time.Duration) {
	t.Energy = append(t.Energy, energy)
	t.Search = append(t.Search, search)
	t.Remove = append(t.Remove, remove)
}

func (t Timings) clone() Timings {
	return Timings{
		Energy: append([]time.Duration(nil), t.Energy...),
		Search: append([]time.Duration(nil), t.Search...),
		Remove: append([]time.Duration(nil), t.Remove...),
	}
}

// Len returns the number of iterations sampled.
func (t Timings) Len() int {
	return len(t.Energy)
}

// meanStdDev returns the mean and the sample standard deviation of the durations.
func meanStdDev(samples []time.Duration) (mean, std time.Duration) {
	if len(samples) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(samples))
	for i, d := range samples {
		xs[i] = float64(d)
	}
	m, s := stat.MeanStdDev(xs, nil)
	if math.IsNaN(s) {
		s = 0
	}
	return time.Duration(m), time.Duration(s)
}

var (
	reportTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	reportLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	reportValue = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

// PrintReport writes the original and current image size together with
// the mean time spent in every carving stage.
func (e *Engine) PrintReport(w io.Writer) {
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", reportLabel.Render(fmt.Sprintf("%-14s", label)), reportValue.Render(value))
	}
	size := func(r image.Rectangle) string {
		return fmt.Sprintf("%dx%d", r.Dx(), r.Dy())
	}

	fmt.Fprintln(w, reportTitle.Render("Seam carving report"))
	row("original size", size(e.original))
	row("current size", size(e.img.Bounds()))
	row("seams removed", fmt.Sprintf("%d columns, %d rows", e.removedCols, e.removedRows))

	stages := []struct {
		name    string
		samples []time.Duration
	}{
		{"energy", e.timings.Energy},
		{"seam search", e.timings.Search},
		{"seam removal", e.timings.Remove},
	}
	for _, s := range stages {
		mean, std := meanStdDev(s.samples)
		row(s.name, fmt.Sprintf("mean %v ± %v", mean.Round(time.Microsecond), std.Round(time.Microsecond)))
	}
}
