package synthetic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/gavel-rubric/infrastructure/ratings"
	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Files names the tables written by WriteDataset.
type Files struct {
	Control string
	Rubric  string
	// Prompts is empty when no catalog was written.
	Prompts string
}

// WriteDataset writes ds to dir as ratings_control and ratings_rubric
// tables in format (csv or xlsx). When withCatalog is set, the prompt ids
// are also written to prompts.csv. Existing files are overwritten.
func WriteDataset(dir string, ds Dataset, format ratings.Format, withCatalog bool) (Files, error) {
	var write func(io.Writer, []domain.Rating) error
	switch format {
	case ratings.FormatCSV:
		write = ratings.WriteRatingsCSV
	case ratings.FormatXLSX:
		write = ratings.WriteRatingsXLSX
	default:
		return Files{}, fmt.Errorf("dataset format %q: %w", format, ports.ErrUnsupportedFormat)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create dataset directory: %w", err)
	}

	files := Files{
		Control: filepath.Join(dir, "ratings_control."+string(format)),
		Rubric:  filepath.Join(dir, "ratings_rubric."+string(format)),
	}
	if err := writeTo(files.Control, func(w io.Writer) error { return write(w, ds.Control.Ratings) }); err != nil {
		return Files{}, err
	}
	if err := writeTo(files.Rubric, func(w io.Writer) error { return write(w, ds.Rubric.Ratings) }); err != nil {
		return Files{}, err
	}

	if withCatalog {
		files.Prompts = filepath.Join(dir, "prompts.csv")
		ids := promptOrder(ds.Control.Ratings)
		if err := writeTo(files.Prompts, func(w io.Writer) error { return ratings.WritePromptIDsCSV(w, ids) }); err != nil {
			return Files{}, err
		}
	}
	return files, nil
}

func promptOrder(rs []domain.Rating) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		if !seen[r.PromptID] {
			seen[r.PromptID] = true
			ids = append(ids, r.PromptID)
		}
	}
	return ids
}

func writeTo(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
