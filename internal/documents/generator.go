package documents

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/spectralabs/spectra-backend/internal/models"
	"github.com/spectralabs/spectra-backend/internal/storage"
)

// Generator renders order paperwork as PDF and returns a hosted URL.
type Generator interface {
	GenerateInvoice(ctx context.Context, order *models.Order) (string, error)
	GenerateReceipt(ctx context.Context, order *models.Order) (string, error)
}

type PDFGenerator struct {
	store storage.ImageStore
}

func NewPDFGenerator(store storage.ImageStore) *PDFGenerator {
	return &PDFGenerator{store: store}
}

func (g *PDFGenerator) GenerateInvoice(ctx context.Context, order *models.Order) (string, error) {
	buf, err := renderDocument("INVOICE", order, false)
	if err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	name := fmt.Sprintf("invoice_%s", order.OrderNumber)
	url, err := g.store.Upload(ctx, buf, "invoices", name)
	if err != nil {
		return "", fmt.Errorf("upload invoice: %w", err)
	}
	return url, nil
}

func (g *PDFGenerator) GenerateReceipt(ctx context.Context, order *models.Order) (string, error) {
	buf, err := renderDocument("RECEIPT", order, true)
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	name := fmt.Sprintf("receipt_%s", order.OrderNumber)
	url, err := g.store.Upload(ctx, buf, "receipts", name)
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return url, nil
}

func renderDocument(title string, order *models.Order, paid bool) (*bytes.Buffer, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 12, title)
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Order Number: %s", order.OrderNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("January 2, 2006")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 6, "Billed To")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, order.Name)
	pdf.Ln(6)
	pdf.Cell(0, 6, order.Email)
	pdf.Ln(6)
	addr := order.DeliveryAddress
	if addr.Street != "" {
		pdf.Cell(0, 6, addr.Street)
		pdf.Ln(6)
		pdf.Cell(0, 6, fmt.Sprintf("%s, %s %s", addr.City, addr.State, addr.ZipCode))
		pdf.Ln(6)
		pdf.Cell(0, 6, addr.Country)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Weight", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("%s (%s)", order.Metal, order.Action)
	pdf.CellFormat(90, 8, desc, "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f g", order.Grams), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("$%.2f", order.PriceNumeric), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 10, "Total", "0", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, fmt.Sprintf("$%.2f", order.PriceNumeric), "1", 1, "R", false, 0, "")
	pdf.Ln(8)

	if paid {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(0, 128, 0)
		pdf.Cell(0, 8, "PAID")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Thank you for your business.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
