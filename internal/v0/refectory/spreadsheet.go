package refectory

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet = "Answers"
	totalsSheet = "Totals"
)

var rosterHeaders = []string{"Name", "Type", "Breakfast", "Lunch", "Afternoon snack", "Dinner", "Night snack"}

// buildSpreadsheet renders the roster and totals of a report as an xlsx file
func buildSpreadsheet(summary *Summary, perType []TypeCount) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range rosterHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(rosterSheet, cell, h)
		f.SetCellStyle(rosterSheet, cell, cell, headerStyle)
	}

	for i, u := range summary.Users {
		row := i + 2
		f.SetCellValue(rosterSheet, fmt.Sprintf("A%d", row), u.Name)
		f.SetCellValue(rosterSheet, fmt.Sprintf("B%d", row), u.TypeLabel)
		f.SetCellValue(rosterSheet, fmt.Sprintf("C%d", row), yesNo(u.Breakfast))
		f.SetCellValue(rosterSheet, fmt.Sprintf("D%d", row), yesNo(u.Lunch))
		f.SetCellValue(rosterSheet, fmt.Sprintf("E%d", row), yesNo(u.AfternoonSnack))
		f.SetCellValue(rosterSheet, fmt.Sprintf("F%d", row), yesNo(u.Dinner))
		f.SetCellValue(rosterSheet, fmt.Sprintf("G%d", row), yesNo(u.NightSnack))
	}
	f.SetColWidth(rosterSheet, "A", "A", 32)
	f.SetColWidth(rosterSheet, "B", "B", 30)

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return nil, err
	}
	totals := [][2]any{
		{"Vigency date", summary.VigencyDate.Format("02/01/2006")},
		{"Breakfast", summary.Totals.Breakfast},
		{"Lunch", summary.Totals.Lunch},
		{"Afternoon snack", summary.Totals.AfternoonSnack},
		{"Dinner", summary.Totals.Dinner},
		{"Night snack", summary.Totals.NightSnack},
		{"Total", summary.Totals.Total},
	}
	for _, tc := range perType {
		totals = append(totals, [2]any{tc.Label, tc.Total})
	}
	for i, kv := range totals {
		f.SetCellValue(totalsSheet, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(totalsSheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	f.SetColWidth(totalsSheet, "A", "A", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(f Flag) string {
	if f {
		return "YES"
	}
	return "NO"
}
