package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLShowsFeePaidAsReceived(t *testing.T) {
	v := Voucher{
		InstituteName:      "Institute",
		ReceiptNumber:      Number(42, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		IssuedAt:           time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		StudentName:        "Sara <script>",
		FatherName:         "Imran",
		PaymentMethod:      "Bank Transfer",
		FeePaid:            5000,
		FeePending:         2000,
		Concession:         500,
		Subtotal:           7000,
		TotalAfterDiscount: 6500,
		ReceiptAmount:      5000,
	}

	body, err := RenderHTML(v)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "REG-2025-000042")
	assert.Contains(t, html, "Amount in words: Five Thousand Only")
	assert.Contains(t, html, "6500.00")
	assert.Contains(t, html, "Balance Pending")
	assert.Contains(t, html, "Sara &lt;script&gt;")
}
