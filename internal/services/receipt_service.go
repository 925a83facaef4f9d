package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"rent-backend/internal/models"
	"rent-backend/internal/timeutil"
)

// ReceiptService renders payment receipts as PDF.
type ReceiptService struct {
	Payments *PaymentService
	Now      Clock
}

func NewReceiptService(payments *PaymentService) *ReceiptService {
	return &ReceiptService{Payments: payments, Now: clockOrDefault(nil)}
}

// Receipt returns the PDF receipt of a payment the actor may see.
func (s *ReceiptService) Receipt(ctx context.Context, actor *models.User, paymentID int) ([]byte, error) {
	p, err := s.Payments.Get(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	return s.render(p)
}

func money(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

func (s *ReceiptService) render(p *models.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Rent Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatIST(s.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment Details", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Receipt #", fmt.Sprintf("%d", p.ID)},
		{"Tenant", p.TenantName},
		{"Date", timeutil.FormatIST(p.PaymentDate, timeutil.DisplayLayout)},
		{"Method", string(p.PaymentMethod)},
		{"Status", string(p.Status)},
		{"Reference", p.Reference()},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Breakdown", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, line := range []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Rent", p.RentAmount},
		{"Electricity", p.ElectricityAmount},
		{"Water", p.WaterAmount},
	} {
		pdf.CellFormat(130, 7, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, money(line.amount), "1", 1, "R", false, 0, "")
	}

	if p.Status == models.PaymentStatusRejected {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(130, 10, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 10, money(p.Amount), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
