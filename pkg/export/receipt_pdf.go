package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/institute-crm-api/pkg/receipt"
)

// RenderReceipt draws a single registration voucher as an A5 PDF.
func RenderReceipt(v receipt.Voucher) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(v.InstituteName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if v.InstituteAddress != "" {
		pdf.CellFormat(0, 5, tr(v.InstituteAddress), "", 1, "C", false, 0, "")
	}
	if v.InstitutePhone != "" {
		pdf.CellFormat(0, 5, tr(v.InstitutePhone), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "FEE RECEIPT", "TB", 1, "C", false, 0, "")
	pdf.Ln(2)

	line := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(55, 7, label, "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, tr(value), "", 1, "R", false, 0, "")
	}
	line("Receipt No", v.ReceiptNumber, false)
	line("Date", v.IssuedAt.Format("02 Jan 2006"), false)
	line("Student", v.StudentName, false)
	line("Father Name", v.FatherName, false)
	line("Session", v.AcademicSession, false)
	line("Payment Method", v.PaymentMethod, false)
	pdf.Ln(2)
	line("Fee Paid", receipt.FormatAmount(v.FeePaid), false)
	line("Fee Pending", receipt.FormatAmount(v.FeePending), false)
	line("Subtotal", receipt.FormatAmount(v.Subtotal), false)
	line("Concession", receipt.FormatAmount(v.Concession), false)
	line("Total After Discount", receipt.FormatAmount(v.TotalAfterDiscount), false)
	line("Amount Received", receipt.FormatAmount(v.ReceiptAmount), true)
	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Amount in words: %s Only", receipt.AmountInWords(v.ReceiptAmount)), "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
