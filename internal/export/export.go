package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"apptbook/internal/domain"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

// Exporter renders the appointment schedule as an xlsx workbook: one column
// per calendar day, one row per time slot, booked cells carrying the
// customer's name and email.
type Exporter struct {
	store  domain.AppointmentStore
	grid   []string
	path   string
	logger *zerolog.Logger
}

func NewExporter(store domain.AppointmentStore, grid []string, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{store: store, grid: grid, path: path, logger: logger}
}

// Workbook builds the schedule workbook for the given days without saving it.
func (e *Exporter) Workbook(ctx context.Context, days []models.CalendarDay) (*excelize.File, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("export: no days to export")
	}

	startKey := days[0].Key()
	endKey := days[len(days)-1].Key()
	daily, err := e.store.DailyAppointments(ctx, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("export: load appointments: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("export: create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Schedule %s to %s", startKey, endKey))

	dayColumns := e.writeDayHeaders(f, days)
	e.writeSlotRows(f)
	e.fillBookings(f, daily, dayColumns)

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	if lastCol, err := excelize.ColumnNumberToName(len(days) + 1); err == nil {
		_ = f.SetColWidth(sheetName, "B", lastCol, 28)
		_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// SaveSchedule builds the workbook and writes it under the configured
// exports directory, returning the file path.
func (e *Exporter) SaveSchedule(ctx context.Context, days []models.CalendarDay) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("export: create directory: %w", err)
	}

	f, err := e.Workbook(ctx, days)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx", days[0].Key(), days[len(days)-1].Key())
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("export: save file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("schedule workbook created")
	return filePath, nil
}

func (e *Exporter) writeDayHeaders(f *excelize.File, days []models.CalendarDay) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	columns := make(map[string]int, len(days))
	col := 2
	for _, day := range days {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		label := day.Label()
		if day.IsHoliday {
			label += " (closed)"
		}
		_ = f.SetCellValue(sheetName, cell, label)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		columns[day.Key()] = col
		col++
	}
	return columns
}

func (e *Exporter) writeSlotRows(f *excelize.File) {
	for i, slot := range e.grid {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(sheetName, cell, slot)
	}
}

func (e *Exporter) fillBookings(f *excelize.File, daily map[string][]*models.Appointment, dayColumns map[string]int) {
	rows := make(map[string]int, len(e.grid))
	for i, slot := range e.grid {
		rows[slot] = i + 3
	}

	for dateKey, appointments := range daily {
		col, ok := dayColumns[dateKey]
		if !ok {
			continue
		}
		for _, a := range appointments {
			row, ok := rows[a.Time]
			if !ok {
				// Off-grid stored time: park it below the grid rather than lose it.
				row = len(e.grid) + 3
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s <%s>", a.Name, a.Email))
		}
	}
}
