package ratings

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

var header = []string{ColumnPromptID, ColumnRaterID, ColumnRating}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRatingsCSV writes ratings in long format with a header row.
func WriteRatingsCSV(w io.Writer, ratings []domain.Rating) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ratings {
		if err := cw.Write([]string{r.PromptID, r.RaterID, formatRating(r.Value)}); err != nil {
			return fmt.Errorf("write rating %s/%s: %w", r.PromptID, r.RaterID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRatingsXLSX writes ratings in long format to the first sheet of a
// new workbook. Ratings are stored as numeric cells.
func WriteRatingsXLSX(w io.Writer, ratings []domain.Rating) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	row := []any{ColumnPromptID, ColumnRaterID, ColumnRating}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range ratings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.PromptID, r.RaterID, r.Value}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write rating %s/%s: %w", r.PromptID, r.RaterID, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WritePromptIDsCSV writes a single-column prompt catalog.
func WritePromptIDsCSV(w io.Writer, ids []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnPromptID}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, id := range ids {
		if err := cw.Write([]string{id}); err != nil {
			return fmt.Errorf("write prompt %s: %w", id, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
