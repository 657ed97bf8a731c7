package ratings

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.RatingsSource = (*FileSource)(nil)

// FileSource loads ratings for each condition from a file on disk.
// The file format follows the extension (.csv, .tsv or .xlsx).
type FileSource struct {
	paths  map[domain.Condition]string
	sheet  string
	logger zerolog.Logger
}

// Option configures a FileSource.
type Option func(*FileSource)

// WithSheet selects the worksheet read from .xlsx files.
func WithSheet(sheet string) Option {
	return func(s *FileSource) { s.sheet = sheet }
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *FileSource) { s.logger = logger }
}

// NewFileSource returns a FileSource reading control and rubric ratings
// from the given paths.
func NewFileSource(controlPath, rubricPath string, opts ...Option) *FileSource {
	s := &FileSource{
		paths: map[domain.Condition]string{
			domain.ConditionControl: controlPath,
			domain.ConditionRubric:  rubricPath,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every rating recorded for condition.
func (s *FileSource) Load(ctx context.Context, condition domain.Condition) (domain.ConditionRatings, error) {
	path, ok := s.paths[condition]
	if !ok || path == "" {
		return domain.ConditionRatings{}, ports.NewConfigError(
			fmt.Sprintf("data.%s_path", condition), ports.ErrConfigNotFound)
	}

	rs, err := s.loadRatings(ctx, path)
	if err != nil {
		return domain.ConditionRatings{}, err
	}
	s.logger.Debug().
		Str("condition", string(condition)).
		Str("path", path).
		Int("ratings", len(rs)).
		Msg("ratings loaded")

	return domain.ConditionRatings{
		Condition: condition,
		Source:    path,
		Ratings:   rs,
	}, nil
}

// LoadRatings reads a long-format ratings table from path.
// Rows with an empty rating cell are treated as missing and skipped. Any
// other unparsable or non-finite rating fails the load with a
// *ports.LoadError that names the line and column.
func LoadRatings(ctx context.Context, path string) ([]domain.Rating, error) {
	return (&FileSource{logger: zerolog.Nop()}).loadRatings(ctx, path)
}

func (s *FileSource) loadRatings(ctx context.Context, path string) ([]domain.Rating, error) {
	t, err := readTable(ctx, path, s.sheet)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColumnPromptID, ColumnRaterID, ColumnRating); err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, ports.NewLoadError(path, 0, "", ports.ErrEmptyTable)
	}

	out := make([]domain.Rating, 0, len(t.rows))
	for i := range t.rows {
		promptID := t.cell(i, ColumnPromptID)
		if promptID == "" {
			return nil, ports.NewLoadError(path, t.line(i), ColumnPromptID, domain.ErrEmptyValue)
		}
		raterID := t.cell(i, ColumnRaterID)
		if raterID == "" {
			return nil, ports.NewLoadError(path, t.line(i), ColumnRaterID, domain.ErrEmptyValue)
		}

		cell := t.cell(i, ColumnRating)
		if cell == "" {
			s.logger.Debug().Str("path", path).Int("line", t.line(i)).Msg("skipping empty rating")
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ports.NewLoadError(path, t.line(i), ColumnRating,
				fmt.Errorf("%w: %q", ports.ErrInvalidRating, cell))
		}

		out = append(out, domain.Rating{PromptID: promptID, RaterID: raterID, Value: v})
	}
	return out, nil
}

// LoadPromptIDs reads the prompt_id column of a prompts table, keeping
// file order and dropping duplicates.
func LoadPromptIDs(ctx context.Context, path string) ([]string, error) {
	t, err := readTable(ctx, path, "")
	if err != nil {
		return nil, err
	}
	if err := t.require(ColumnPromptID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(t.rows))
	ids := make([]string, 0, len(t.rows))
	for i := range t.rows {
		id := t.cell(i, ColumnPromptID)
		if id == "" {
			return nil, ports.NewLoadError(path, t.line(i), ColumnPromptID, domain.ErrEmptyValue)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ports.NewLoadError(path, 0, "", ports.ErrEmptyTable)
	}
	return ids, nil
}
