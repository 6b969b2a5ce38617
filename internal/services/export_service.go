package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	reportSvc *ReportService
	now       Clock
}

func NewExportService(reportSvc *ReportService, clock Clock) *ExportService {
	return &ExportService{reportSvc: reportSvc, now: clock}
}

// SettlementXLSX renders the yearly settlement report as a workbook with summary, deposit and loan sheets.
func (s *ExportService) SettlementXLSX(ctx context.Context, year string) ([]byte, string, error) {
	report, err := s.reportSvc.YearlySettlementReport(ctx, year)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Summary"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Yearly Settlement "+report.Year)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	status := "Not settled (computed)"
	if report.Settled {
		status = "Settled " + report.SettlementDate.Format(dateLayout)
	}

	rows := [][]interface{}{
		{"Status", status},
		{"Period", report.StartDate.Format(dateLayout) + " to " + report.EndDate.Format(dateLayout)},
		{"Total deposits", money(report.TotalDeposits)},
		{"Total loans", money(report.TotalLoans)},
		{"Interest earned by depositors", money(report.TotalInterestEarned)},
		{"Interest paid by borrowers", money(report.TotalInterestPaid)},
		{"Net balance", money(report.NetBalance)},
		{"Deposits settled", report.DepositCount},
		{"Loans settled", report.LoanCount},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetSheetRow(sheet, cell, &row)
	}

	depositSheet := "Deposits"
	_, _ = f.NewSheet(depositSheet)
	_ = f.SetSheetRow(depositSheet, "A1", &[]interface{}{"ID", "Member", "Amount", "Deposit date", "Rate", "Status", "Return date", "Interest", "Total"})
	_ = f.SetCellStyle(depositSheet, "A1", "I1", headerStyle)
	for i, d := range report.Deposits {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(depositSheet, cell, &[]interface{}{
			d.ID.String(), d.MemberName, money(d.Amount), d.DepositDate.Format(dateLayout), money(d.InterestRate),
			d.Status, formatOptionalDate(d.ReturnDate), money(d.InterestEarned), money(d.TotalAmount),
		})
	}

	loanSheet := "Loans"
	_, _ = f.NewSheet(loanSheet)
	_ = f.SetSheetRow(loanSheet, "A1", &[]interface{}{"ID", "Member", "Amount", "Loan date", "Rate", "Status", "Return date", "Interest", "Total", "Paid", "Discount", "Remaining"})
	_ = f.SetCellStyle(loanSheet, "A1", "L1", headerStyle)
	for i, l := range report.Loans {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(loanSheet, cell, &[]interface{}{
			l.ID.String(), l.MemberName, money(l.LoanAmount), l.LoanDate.Format(dateLayout), money(l.InterestRate),
			l.Status, formatOptionalDate(l.ReturnDate), money(l.InterestAmount), money(l.TotalRepayment),
			money(l.PaidAmount), money(l.DiscountAmount), money(l.RemainingAmount),
		})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("settlement_%s_%s.xlsx", report.Year, s.now.today().Format(dateLayout))
	return buf.Bytes(), filename, nil
}

// MemberStatementPDF renders a member statement as a one-page PDF
func (s *ExportService) MemberStatementPDF(ctx context.Context, memberID uuid.UUID) ([]byte, string, error) {
	statement, err := s.reportSvc.MemberStatement(ctx, memberID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Member Statement")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, statement.Name)
	pdf.Ln(5)
	pdf.Cell(40, 6, "As of "+statement.AsOf.Format(dateLayout))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Deposits")
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 9)
	for _, h := range []string{"Date", "Amount", "Status", "Interest", "Total"} {
		pdf.CellFormat(36, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, d := range statement.Deposits {
		earned, total := d.InterestEarned, d.TotalAmount
		if d.CurrentInterest != nil {
			earned, total = *d.CurrentInterest, *d.CurrentTotal
		}
		pdf.CellFormat(36, 6, d.DepositDate.Format(dateLayout), "1", 0, "", false, 0, "")
		pdf.CellFormat(36, 6, money(d.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, d.Status, "1", 0, "", false, 0, "")
		pdf.CellFormat(36, 6, money(earned), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, money(total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Loans")
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 9)
	for _, h := range []string{"Date", "Amount", "Status", "Paid", "Remaining"} {
		pdf.CellFormat(36, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, l := range statement.Loans {
		remaining := l.RemainingAmount
		if l.CurrentRemaining != nil {
			remaining = *l.CurrentRemaining
		}
		pdf.CellFormat(36, 6, l.LoanDate.Format(dateLayout), "1", 0, "", false, 0, "")
		pdf.CellFormat(36, 6, money(l.LoanAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, l.Status, "1", 0, "", false, 0, "")
		pdf.CellFormat(36, 6, money(l.PaidAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, money(remaining), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(70, 6, "Active deposit value:")
	pdf.Cell(40, 6, money(statement.ActiveDepositValue))
	pdf.Ln(6)
	pdf.Cell(70, 6, "Outstanding loan balance:")
	pdf.Cell(40, 6, money(statement.OutstandingBalance))
	pdf.Ln(6)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("statement_%s_%s.pdf", statement.MemberID, statement.AsOf.Format(dateLayout))
	return buf.Bytes(), filename, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
