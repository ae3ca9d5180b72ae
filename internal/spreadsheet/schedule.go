// Package spreadsheet reads class schedules from xlsx workbooks for bulk import.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/classroom-bot/internal/application"
)

// ErrNoHeader is returned when no row names the required columns.
var ErrNoHeader = errors.New("spreadsheet: no header row with subject, date and time columns")

type column int

const (
	colName column = iota
	colProfessor
	colLocation
	colDate
	colTime
	colType
	colDescription
	columnCount
)

// headerAliases maps normalised header cells to columns. Both the English
// names and the Polish headers of the faculty timetable export are accepted.
var headerAliases = map[string]column{
	"subject":      colName,
	"class":        colName,
	"classname":    colName,
	"name":         colName,
	"przedmiot":    colName,
	"professor":    colProfessor,
	"szczegóły":    colProfessor,
	"prowadzący":   colProfessor,
	"location":     colLocation,
	"room":         colLocation,
	"sala":         colLocation,
	"date":         colDate,
	"data":         colDate,
	"time":         colTime,
	"godzina":      colTime,
	"type":         colType,
	"rodzaj zajęć": colType,
	"description":  colDescription,
	"notes":        colDescription,
	"uwagi":        colDescription,
}

// groupPrefixes mark continuation rows that name the student group of the
// row above them.
var groupPrefixes = []string{"Grupa:", "Group:"}

// ReadSchedules parses the schedule rows of sheet, or of the first sheet
// when sheet is empty. Rows before the header and rows without a subject are
// skipped, except that a continuation row naming a group is appended to the
// description of the schedule above it. Dates stored as spreadsheet serials
// or as DD.MM.YYYY are converted to YYYY-MM-DD; the caller validates the rest.
func ReadSchedules(r io.Reader, sheet string) ([]application.ScheduleFields, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer book.Close()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read sheet %q: %w", sheet, err)
	}

	header, start := findHeader(rows)
	if header == nil {
		return nil, ErrNoHeader
	}

	var out []application.ScheduleFields
	for _, row := range rows[start:] {
		cell := func(c column) string {
			idx := header[c]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if cell(colName) == "" {
			if group := groupName(cell(colProfessor)); group != "" && len(out) > 0 {
				prev := &out[len(out)-1]
				prev.Description = strings.TrimSpace(prev.Description + "\n" + group)
			}
			continue
		}
		out = append(out, application.ScheduleFields{
			Name:        cell(colName),
			Professor:   cell(colProfessor),
			Location:    cell(colLocation),
			Date:        normaliseDate(cell(colDate)),
			Time:        normaliseTime(cell(colTime)),
			Type:        cell(colType),
			Description: cell(colDescription),
		})
	}
	return out, nil
}

// findHeader returns the column index per field and the first data row.
// Unmapped columns are -1.
func findHeader(rows [][]string) ([]int, int) {
	for i, row := range rows {
		idx := make([]int, columnCount)
		for c := range idx {
			idx[c] = -1
		}
		for j, value := range row {
			if c, ok := headerAliases[strings.ToLower(strings.TrimSpace(value))]; ok && idx[c] < 0 {
				idx[c] = j
			}
		}
		if idx[colName] >= 0 && idx[colDate] >= 0 && idx[colTime] >= 0 {
			return idx, i + 1
		}
	}
	return nil, 0
}

func groupName(value string) string {
	for _, prefix := range groupPrefixes {
		if strings.HasPrefix(value, prefix) {
			return value
		}
	}
	return ""
}

func normaliseDate(value string) string {
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 1 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	if t, err := time.Parse("02.01.2006", value); err == nil {
		return t.Format(time.DateOnly)
	}
	return value
}

// normaliseTime turns a time-of-day serial (a fraction of a day) into HH:MM.
func normaliseTime(value string) string {
	fraction, err := strconv.ParseFloat(value, 64)
	if err != nil || fraction < 0 || fraction >= 1 {
		return value
	}
	minutes := int(math.Round(fraction * 24 * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
