package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// renderSummary prints one table row per sheet.
func renderSummary(w io.Writer, wb *models.WorkbookData, size int64) error {
	rows := make([][]string, 0, len(wb.SheetOrder))
	for _, name := range wb.SheetOrder {
		sheet := wb.Sheets[name]
		dim := sheet.Dimension
		if dim == "" {
			dim = "-"
		}
		rows = append(rows, []string{
			name,
			dim,
			strconv.Itoa(len(sheet.Rows)),
			strconv.Itoa(len(sheet.Merges)),
			strconv.Itoa(len(sheet.TableCandidates)),
			strconv.Itoa(len(sheet.PrintAreas)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("SHEET", "RANGE", "ROWS", "MERGES", "TABLES", "PRINT AREAS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 2:
				return numStyle
			}
			return cellStyle
		})

	footer := fmt.Sprintf("%d sheet(s), %s", len(wb.SheetOrder), humanize.Bytes(uint64(size)))
	if wb.Date1904 {
		footer += ", 1904 date system"
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(wb.BookName),
		t.String(),
		mutedStyle.Render(footer),
	))
	return err
}
