package bench

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// WriteRun prints the elapsed-time line of a single run.
func WriteRun(w io.Writer, res domain.RunResult) error {
	var err error
	switch res.Mode {
	case domain.ModeSequential:
		_, err = fmt.Fprintf(w, "El tiempo de ejecución no concurrente es de: %.2f segundos para %d noticias\n",
			res.Elapsed.Seconds(), len(res.Articles))
	default:
		_, err = fmt.Fprintf(w, "El tiempo de ejecución concurrente es de: %.2f segundos para %d noticias\n",
			res.Elapsed.Seconds(), len(res.Articles))
	}
	return err
}

// WriteComparison prints the sequential and pooled timings one after the other.
func WriteComparison(w io.Writer, sequential, pooled domain.RunResult) error {
	if err := WriteRun(w, sequential); err != nil {
		return err
	}
	return WriteRun(w, pooled)
}

// WriteSweep prints one line per worker count followed by an aligned summary table.
func WriteSweep(w io.Writer, results []domain.RunResult) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "Tiempo con %d hilo(s): %.2f segundos\n", res.Workers, res.Elapsed.Seconds()); err != nil {
			return err
		}
	}
	if len(results) == 0 {
		return nil
	}

	rows := [][]string{{"Hilos", "Tiempo (s)", "Artículos", "Fallidos"}}
	for _, res := range results {
		rows = append(rows, []string{
			strconv.Itoa(res.Workers),
			strconv.FormatFloat(res.Elapsed.Seconds(), 'f', 2, 64),
			strconv.Itoa(len(res.Articles)),
			strconv.Itoa(res.Failed()),
		})
	}

	for _, line := range alignTable(rows) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// alignTable pads cells to the display width of their column and inserts a
// separator after the header row.
func alignTable(rows [][]string) []string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for r, row := range rows {
		var sb strings.Builder
		sb.WriteString("|")
		for i, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString(" |")
		}
		lines = append(lines, sb.String())

		if r == 0 {
			var sep strings.Builder
			sep.WriteString("|")
			for _, width := range widths {
				sep.WriteString(strings.Repeat("-", width+2))
				sep.WriteString("|")
			}
			lines = append(lines, sep.String())
		}
	}
	return lines
}
