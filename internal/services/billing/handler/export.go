package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"whisk-system/internal/api"
	"whisk-system/internal/database/models"

	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const (
	ExportXLSX = "xlsx"
	ExportCSV  = "csv"
)

var exportHeader = []string{"Invoice", "Date", "Customer", "Order Type", "Items", "Subtotal", "Discount %", "GST %", "Total", "Amount Paid", "Balance Due", "Status"}

// ExportInvoices renders every invoice matching the filter, newest first.
// Paging on the request is ignored.
func (s *BillingHandler) ExportInvoices(ctx context.Context, req *api.ListInvoicesRequest, format string) ([]byte, error) {
	query, _, err := s.filteredInvoices(ctx, req)
	if err != nil {
		return nil, err
	}

	var invoices []models.Invoice
	err = query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("date DESC, id DESC").Find(&invoices).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to load invoices: %v", err)
	}

	rows := make([][]interface{}, len(invoices))
	for i, inv := range invoices {
		out := invoiceToAPI(inv)
		rows[i] = []interface{}{
			out.InvoiceNumber,
			out.Date,
			out.CustomerName,
			out.OrderType,
			len(out.Items),
			out.Subtotal,
			out.Discount,
			out.GST,
			out.Total,
			out.AmountPaid,
			out.Summary.BalanceDue,
			out.PaymentStatus,
		}
	}

	switch strings.ToLower(format) {
	case "", ExportXLSX:
		data, err := exportInvoicesXLSX(rows)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "Failed to build spreadsheet: %v", err)
		}
		return data, nil
	case ExportCSV:
		data, err := exportInvoicesCSV(rows)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "Failed to build csv: %v", err)
		}
		return data, nil
	}
	return nil, status.Errorf(codes.InvalidArgument, "Unknown export format: %s", format)
}

func exportInvoicesCSV(rows [][]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeader)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			switch t := v.(type) {
			case float64:
				record[i] = strconv.FormatFloat(t, 'f', 2, 64)
			case int:
				record[i] = strconv.Itoa(t)
			case string:
				record[i] = t
			}
		}
		_ = w.Write(record)
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportInvoicesXLSX(rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "D", "L", 13)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F3E5D8"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "L1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
