package invoice

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

// Line is one priced position on the invoice.
type Line struct {
	Description string
	AmountCents int64
}

// Invoice carries everything the PDF needs. QRCodePNG is optional and
// holds the scannable bank transfer code when bank transfer is an
// offered payment method.
type Invoice struct {
	BookingID   int64
	IssuedTo    string
	RoomName    string
	Start       time.Time
	End         time.Time
	Lines       []Line
	TotalCents  int64
	Beneficiary string
	IBAN        string
	BIC         string
	PurposeLine string
	QRCodePNG   []byte
}

// Service renders booking invoices as PDF files on local disk. A
// re-approval overwrites the previous file so the download always
// reflects the latest pricing.
type Service interface {
	Generate(inv Invoice) (string, error)
	Path(bookingID int64) string
}

type pdfService struct {
	dir string
}

func NewPDFService(dir string) (Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice dir: %w", err)
	}
	return &pdfService{dir: dir}, nil
}

func (s *pdfService) Path(bookingID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("invoice-%d.pdf", bookingID))
}

func (s *pdfService) Generate(inv Invoice) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, fmt.Sprintf("Invoice for booking #%d", inv.BookingID))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Issued to: "+inv.IssuedTo)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Facility: "+inv.RoomName)
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		inv.Start.Local().Format("02.01.2006 15:04"),
		inv.End.Local().Format("02.01.2006 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Issued on: "+time.Now().Format("02.01.2006"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(140, 8, "Position", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range inv.Lines {
		pdf.CellFormat(140, 7, line.Description, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, formatCents(line.AmountCents), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(140, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 9, formatCents(inv.TotalCents), "T", 1, "R", false, 0, "")
	pdf.Ln(10)

	if inv.IBAN != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, "Payment by bank transfer")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 5, "Beneficiary: "+inv.Beneficiary)
		pdf.Ln(5)
		pdf.Cell(0, 5, "IBAN: "+inv.IBAN)
		pdf.Ln(5)
		pdf.Cell(0, 5, "BIC: "+inv.BIC)
		pdf.Ln(5)
		pdf.Cell(0, 5, "Purpose: "+inv.PurposeLine)
		pdf.Ln(8)

		if len(inv.QRCodePNG) > 0 {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("payment-qr", opts, bytes.NewReader(inv.QRCodePNG))
			pdf.ImageOptions("payment-qr", pdf.GetX(), pdf.GetY(), 40, 40, false, opts, 0, "")
		}
	}

	path := s.Path(inv.BookingID)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write invoice pdf: %w", err)
	}
	return path, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d EUR", cents/100, cents%100)
}
