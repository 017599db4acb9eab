// Package export writes harvested articles to the tabular output artifact.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// Header is the column row of the CSV artifact.
var Header = []string{"titulo", "subtitulo", "fecha"}

// Write encodes articles as CSV rows (header first, no index column).
func Write(w io.Writer, articles []domain.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, art := range articles {
		if err := cw.Write([]string{art.Title, art.Subtitle, art.Date}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV creates or truncates path and writes articles to it.
func WriteCSV(path string, articles []domain.Article) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	return Write(f, articles)
}
