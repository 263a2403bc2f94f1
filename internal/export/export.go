// Package export renders back-office reports as xlsx workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
)

const ordersSheet = "Orders"

var orderHeader = []string{
	"Order Number", "Customer", "Phone", "Status", "Items", "Total",
	"Created At",
}

// OrdersWorkbook renders the given orders as a single-sheet xlsx workbook.
// Prices are written in major units (total_price is stored in minor units).
func OrdersWorkbook(orders []domain.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), ordersSheet)

	for col, title := range orderHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(ordersSheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, o := range orders {
		row := i + 2
		values := []any{
			o.OrderNumber,
			o.CustomerName,
			o.CustomerPhone,
			o.Status,
			len(o.Items),
			float64(o.TotalPrice) / 100,
			o.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(ordersSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
