package overlap

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tealeg/xlsx/v3"

	"groupsched/internal/model"
)

// AnalysisWriter persists a full-grid availability analysis. All writers
// emit the same table: one row per cell over the whole week in day-major
// order, with count, total and percentage columns.
type AnalysisWriter interface {
	Write(h *Heatmap, out string) error
}

// NewAnalysisWriter selects a writer by format name ("tsv" or "xlsx").
func NewAnalysisWriter(format string) (AnalysisWriter, error) {
	switch format {
	case "tsv":
		return TSVWriter{}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown analysis format %q", format)
	}
}

var analysisHeader = []string{
	"day", "day_name", "hour", "available_count", "total_participants", "percentage",
}

// analysisRows yields every cell row in day-major order.
func analysisRows(h *Heatmap, visit func(day model.Day, hour, count int, pct float64)) {
	total := h.Total()
	w := h.Window()
	for day := model.Monday; day <= model.Sunday; day++ {
		for hour := w.StartHour; hour < w.EndHour; hour++ {
			count := h.Count(model.Slot{Day: day, Hour: hour})
			pct := 0.0
			if total > 0 {
				pct = float64(count) / float64(total) * 100
			}
			visit(day, hour, count, pct)
		}
	}
}

// TSVWriter writes the analysis as a tab-separated table.
type TSVWriter struct{}

func (TSVWriter) Write(h *Heatmap, out string) error {
	if out == "" {
		return fmt.Errorf("output path can not be empty")
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writeAnalysisTSV(f, h); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAnalysisTSV(w io.Writer, h *Heatmap) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(analysisHeader); err != nil {
		return err
	}
	var werr error
	analysisRows(h, func(day model.Day, hour, count int, pct float64) {
		if werr != nil {
			return
		}
		werr = cw.Write([]string{
			strconv.Itoa(int(day)),
			day.String(),
			strconv.Itoa(hour),
			strconv.Itoa(count),
			strconv.Itoa(h.Total()),
			fmt.Sprintf("%.1f%%", pct),
		})
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}

// XLSXWriter writes the analysis as a single-sheet spreadsheet.
type XLSXWriter struct{}

func (XLSXWriter) Write(h *Heatmap, out string) error {
	if out == "" {
		return fmt.Errorf("output path can not be empty")
	}

	f := xlsx.NewFile()
	sh, err := f.AddSheet("Analysis")
	if err != nil {
		return err
	}

	row := sh.AddRow()
	for _, col := range analysisHeader {
		row.AddCell().SetString(col)
	}

	analysisRows(h, func(day model.Day, hour, count int, pct float64) {
		r := sh.AddRow()
		r.AddCell().SetInt(int(day))
		r.AddCell().SetString(day.String())
		r.AddCell().SetInt(hour)
		r.AddCell().SetInt(count)
		r.AddCell().SetInt(h.Total())
		r.AddCell().SetString(fmt.Sprintf("%.1f%%", pct))
	})

	return f.Save(out)
}
