package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/glacierwatch/internal/models"
)

const (
	sheetSummary      = "Summary"
	sheetClimate      = "Climate"
	sheetConversation = "Conversation"
	dateLayout        = "2006-01-02"
)

// WriteXLSX writes a workbook with Summary, Climate and Conversation sheets.
func WriteXLSX(w io.Writer, s *models.Session) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetClimate, sheetConversation} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeRows(f, sheetSummary, bold, summaryRows(s)); err != nil {
		return err
	}
	if err := writeRows(f, sheetClimate, bold, climateRows(s.LastClimate)); err != nil {
		return err
	}
	if err := writeRows(f, sheetConversation, bold, conversationRows(s.Turns)); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 28)
	_ = f.SetColWidth(sheetSummary, "B", "B", 40)
	_ = f.SetColWidth(sheetConversation, "B", "C", 60)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeRows writes rows from A1 down, styling the first row as a header.
func writeRows(f *excelize.File, sheet string, headerStyle int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}

func summaryRows(s *models.Session) [][]any {
	rows := [][]any{
		{"Field", "Value"},
		{"Session", s.ID},
		{"Glacier/Location", s.AOI.Name},
	}
	if c := s.AOI.Center; c != nil {
		rows = append(rows,
			[]any{"Latitude", c.Lat},
			[]any{"Longitude", c.Lon},
			[]any{"Buffer Radius (km)", s.AOI.RadiusKm},
		)
	} else {
		rows = append(rows, []any{"Polygon Vertices", len(s.AOI.Polygon)})
	}
	rows = append(rows, []any{"Created", s.CreatedAt.Format(dateLayout)})

	v := s.LastVelocity
	if v == nil {
		return append(rows, []any{"Velocity", "Not Calculated"})
	}
	if v.Simulated {
		rows = append(rows, []any{"Data Source", "Simulated platform (synthetic)"})
	}
	return append(rows,
		[]any{"Velocity Start Date", v.DateA.Format(dateLayout)},
		[]any{"Velocity End Date", v.DateB.Format(dateLayout)},
		[]any{"Time Gap (days)", v.TimeGapDays},
		[]any{"Reference Scene", v.Pair.Reference.ID},
		[]any{"Target Scene", v.Pair.Target.ID},
		[]any{"Cloud Tolerance (%)", v.Pair.CloudTolerance},
		[]any{"Window Size", v.WindowSize},
		[]any{"Glacier Outlines", v.GlacierCount},
		[]any{"Average Velocity (m/day)", v.Summary.MeanMPerDay},
		[]any{"Max Velocity (m/day)", v.Summary.MaxMPerDay},
		[]any{"Min Velocity (m/day)", v.Summary.MinMPerDay},
		[]any{"Annual Speed (m/year)", v.Summary.AnnualMPerYear},
		[]any{"Valid Pixels", v.Summary.ValidPixels},
	)
}

func climateRows(c *models.ClimateLayer) [][]any {
	rows := [][]any{{"Variable", "Band", "Unit", "Month", "Images", "Mean", "Min", "Max"}}
	if c == nil {
		return rows
	}
	row := []any{c.Variable.ID, c.Variable.Band, c.Variable.Unit, c.Month.Format("2006-01"), c.ImageCount}
	if c.Stats != nil {
		row = append(row, c.Stats.Mean, c.Stats.Min, c.Stats.Max)
	}
	return append(rows, row)
}

func conversationRows(turns []models.ConversationTurn) [][]any {
	rows := [][]any{{"Asked At", "Question", "Answer", "Model"}}
	for _, t := range turns {
		rows = append(rows, []any{t.AskedAt.Format("2006-01-02 15:04:05"), t.Question, t.Answer, t.Model})
	}
	return rows
}
