package payments

import (
	"context"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// BankTransferProvider issues manual SEPA transfer instructions. The
// citizen pays by regular bank transfer carrying a structured purpose
// line; an accounting clerk reconciles incoming transfers through the
// payments callback endpoint.
type BankTransferProvider struct {
	beneficiary string
	iban        string
	bic         string
}

func NewBankTransferProvider(beneficiary, iban, bic string) *BankTransferProvider {
	return &BankTransferProvider{beneficiary: beneficiary, iban: iban, bic: bic}
}

func (p *BankTransferProvider) CreateIntent(ctx context.Context, amountCents int64, description, correlationID string) (*Handle, error) {
	return &Handle{
		Method:    domain.MethodBankTransfer,
		Reference: p.PurposeLine(correlationID),
	}, nil
}

// Refund is not automated for bank transfers. A clerk wires the money
// back by hand, so the API reports the limitation instead of
// pretending.
func (p *BankTransferProvider) Refund(ctx context.Context, reference string, amountCents int64) error {
	return domain.NotImplementedError("bank transfer refunds are processed manually")
}

// PurposeLine builds the structured purpose the citizen must quote so
// an incoming transfer can be matched to its booking.
func (p *BankTransferProvider) PurposeLine(correlationID string) string {
	return "SPORT-" + correlationID
}

// EPCPayload renders the EPC069-12 quick-response payload German
// banking apps scan to prefill a SEPA credit transfer.
func (p *BankTransferProvider) EPCPayload(amountCents int64, correlationID string) string {
	lines := []string{
		"BCD",
		"002",
		"1",
		"SCT",
		p.bic,
		p.beneficiary,
		p.iban,
		fmt.Sprintf("EUR%d.%02d", amountCents/100, amountCents%100),
		"",
		"",
		p.PurposeLine(correlationID),
	}
	return strings.Join(lines, "\n")
}

// QRCode returns the EPC payload as a PNG for embedding in invoices.
func (p *BankTransferProvider) QRCode(amountCents int64, correlationID string) ([]byte, error) {
	return qrcode.Encode(p.EPCPayload(amountCents, correlationID), qrcode.Medium, 256)
}
