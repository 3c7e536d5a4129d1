package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/voucher.html
var templatesFS embed.FS

var voucherTemplate = template.Must(template.New("voucher.html").Funcs(template.FuncMap{
	"amount": FormatAmount,
	"words":  AmountInWords,
	"date":   func(t time.Time) string { return t.Format("02 Jan 2006") },
}).ParseFS(templatesFS, "templates/voucher.html"))

// Voucher is everything printed on a registration payment receipt.
type Voucher struct {
	InstituteName      string
	InstituteAddress   string
	InstitutePhone     string
	ReceiptNumber      string
	IssuedAt           time.Time
	StudentName        string
	FatherName         string
	Phone              string
	AcademicSession    string
	PaymentMethod      string
	FeePaid            float64
	FeePending         float64
	Concession         float64
	Subtotal           float64
	TotalAfterDiscount float64
	ReceiptAmount      float64
	FullyPaid          bool
}

// Number formats a stable receipt number for a registration.
func Number(id int64, createdAt time.Time) string {
	return fmt.Sprintf("REG-%s-%06d", createdAt.UTC().Format("2006"), id)
}

// RenderHTML renders the printable voucher page.
func RenderHTML(v Voucher) ([]byte, error) {
	var buf bytes.Buffer
	if err := voucherTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render voucher: %w", err)
	}
	return buf.Bytes(), nil
}
