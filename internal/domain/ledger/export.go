package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Lançamentos"

var exportHeader = []string{
	"Data",
	"Tipo",
	"Descrição",
	"Categoria",
	"Paciente",
	"Forma de Pagamento",
	"Tipo de Gasto",
	"Valor",
}

var exportWidths = []float64{12, 10, 50, 28, 28, 20, 14, 14}

func exportRow(t *Transaction) []interface{} {
	row := []interface{}{
		t.Date.Format("2006-01-02"),
		t.Direction.Label(),
		t.Description,
		t.Category,
		"",
		"",
		"",
		t.Signed(),
	}
	if t.PatientName != nil {
		row[4] = *t.PatientName
	}
	if t.PaymentMethod != nil {
		row[5] = string(*t.PaymentMethod)
	}
	if t.ExpenseType != nil {
		row[6] = string(*t.ExpenseType)
	}
	return row
}

// WriteXLSX renders items as a single-sheet workbook followed by the inflow,
// outflow and balance totals. Outflows are written as negative values.
func WriteXLSX(w io.Writer, items []*Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, width := range exportWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(t)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	sum := Summarize(items)
	totals := []struct {
		label string
		value float64
	}{
		{"Total Entradas", sum.Inflow},
		{"Total Saídas", sum.Outflow},
		{"Saldo", sum.Balance},
	}
	start := len(items) + 3
	for i, tot := range totals {
		row := start + i
		if err := f.SetCellValue(exportSheet, fmt.Sprintf("G%d", row), tot.label); err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, fmt.Sprintf("H%d", row), tot.value); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(exportSheet, "H2", fmt.Sprintf("H%d", start+len(totals)-1), moneyStyle); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
