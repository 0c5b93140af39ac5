package reports

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/stitchbook/stitchbook/internal/ledger"
)

// XLSXContentType is the MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	orderHeadings = []string{
		"Order No", "Date", "Client Name", "Phone", "Items", "Work Status", "Delivery Status",
		"Delivered Date", "Payment Status", "Total Amount", "Paid Amount", "Balance Amount", "Notes",
	}
	expenseHeadings = []string{"Date", "Category", "Description", "Mode", "Amount"}
	monthlyHeadings = []string{
		"Month", "Opening Bank", "Opening Cash", "Sales", "Expenses", "Deposits", "Withdrawals",
		"Closing Bank", "Closing Cash", "Orders Booked", "Collected Same Month", "Pending", "Previous Month Recovery",
	}
)

// ExportOrders writes every order as one spreadsheet row.
func (s *Service) ExportOrders(ctx context.Context, w io.Writer) error {
	h, err := s.ledger.History(ctx)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(h.Orders))
	for _, o := range h.Orders {
		delivered := ""
		if o.DeliveredDate != nil {
			delivered = o.DeliveredDate.String()
		}
		rows = append(rows, []any{
			o.OrderNumber,
			o.OrderDate.String(),
			o.ClientName,
			o.Phone,
			itemsSummary(o.Items),
			string(o.WorkStatus),
			string(o.DeliveryStatus),
			delivered,
			string(o.PaymentStatus),
			money(o.TotalAmount),
			money(o.AdvanceAmount),
			money(o.BalanceAmount),
			o.Notes,
		})
	}
	return writeSheet(w, "Orders", orderHeadings, rows)
}

// ExportExpenses writes every expense as one spreadsheet row.
func (s *Service) ExportExpenses(ctx context.Context, w io.Writer) error {
	h, err := s.ledger.History(ctx)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(h.Expenses))
	for _, e := range h.Expenses {
		rows = append(rows, []any{e.Date.String(), e.Category, e.Description, string(e.Mode), money(e.Amount)})
	}
	return writeSheet(w, "Expenses", expenseHeadings, rows)
}

// ExportMonthly writes the statement of year with a totals row.
func (s *Service) ExportMonthly(ctx context.Context, year int, w io.Writer) error {
	report, err := s.Monthly(ctx, year)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(report.Months)+1)
	for _, m := range report.Months {
		rows = append(rows, []any{
			m.Name,
			money(m.OpeningBank), money(m.OpeningCash),
			money(m.Sales), money(m.Expenses), money(m.Deposits), money(m.Withdrawals),
			money(m.ClosingBank), money(m.ClosingCash),
			money(m.OrdersBooked), money(m.CollectedSameMonth), money(m.Pending), money(m.PreviousMonthRecovery),
		})
	}
	t := report.Totals
	rows = append(rows, []any{
		"Total", "", "",
		money(t.Sales), money(t.Expenses), money(t.Deposits), money(t.Withdrawals),
		"", "",
		money(t.OrdersBooked), "", "", money(t.PreviousMonthRecovery),
	})
	return writeSheet(w, fmt.Sprintf("Statement %d", year), monthlyHeadings, rows)
}

func itemsSummary(items []ledger.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (x%d)", item.Description, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

// money keeps cells numeric so spreadsheet formulas work on them.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func writeSheet(w io.Writer, sheet string, headings []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("reports: name sheet: %w", err)
	}
	header := make([]any, len(headings))
	for i, h := range headings {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("reports: write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("reports: write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("reports: freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("reports: write workbook: %w", err)
	}
	return nil
}
