package order

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

const maxExportRows = 10000

var exportHeader = []string{
	"Order Number", "Date", "Customer Email", "Status", "Items",
	"Subtotal", "Discount", "Delivery", "Total",
}

// ExportXLSX writes the orders matching req as a spreadsheet, newest first.
// Pagination in req is ignored.
func (s *Service) ExportXLSX(ctx context.Context, req *AdminListRequest, w io.Writer) error {
	var orders []Order
	err := s.adminQuery(ctx, req).
		Preload("Items").
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(maxExportRows).
		Find(&orders).Error
	if err != nil {
		return fmt.Errorf("failed to load orders for export: %w", err)
	}

	file, err := buildWorkbook(orders)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(orders []Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, title := range exportHeader {
		header.AddCell().SetString(title)
	}

	for i := range orders {
		o := &orders[i]
		row := sheet.AddRow()
		row.AddCell().SetString(o.OrderNumber)
		row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04"))
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		row.AddCell().SetString(email)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetInt(o.ItemCount())
		row.AddCell().SetFloat(o.Subtotal.InexactFloat64())
		row.AddCell().SetFloat(o.DiscountAmount.InexactFloat64())
		row.AddCell().SetFloat(o.DeliveryCost.InexactFloat64())
		row.AddCell().SetFloat(o.TotalAmount.InexactFloat64())
	}
	return file, nil
}
