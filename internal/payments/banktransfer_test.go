package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

func TestEPCPayload(t *testing.T) {
	p := NewBankTransferProvider("Stadtkasse", "DE02120300000000202051", "BYLADEM1001")

	payload := p.EPCPayload(4000, "7")
	lines := strings.Split(payload, "\n")

	if lines[0] != "BCD" || lines[1] != "002" || lines[3] != "SCT" {
		t.Errorf("unexpected EPC header: %v", lines[:4])
	}
	if lines[4] != "BYLADEM1001" {
		t.Errorf("expected BIC on line 5, got %q", lines[4])
	}
	if lines[5] != "Stadtkasse" {
		t.Errorf("expected beneficiary on line 6, got %q", lines[5])
	}
	if lines[6] != "DE02120300000000202051" {
		t.Errorf("expected IBAN on line 7, got %q", lines[6])
	}
	if lines[7] != "EUR40.00" {
		t.Errorf("expected EUR40.00, got %q", lines[7])
	}
	if lines[10] != "SPORT-7" {
		t.Errorf("expected purpose SPORT-7, got %q", lines[10])
	}
}

func TestBankTransferIntent(t *testing.T) {
	p := NewBankTransferProvider("Stadtkasse", "DE02120300000000202051", "BYLADEM1001")

	handle, err := p.CreateIntent(context.Background(), 4000, "Booking #7 Hall A", "7")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if handle.Method != domain.MethodBankTransfer {
		t.Errorf("expected bank_transfer method, got %s", handle.Method)
	}
	if handle.Reference != "SPORT-7" {
		t.Errorf("expected purpose line as reference, got %q", handle.Reference)
	}
}

func TestBankTransferRefundNotImplemented(t *testing.T) {
	p := NewBankTransferProvider("Stadtkasse", "DE02120300000000202051", "BYLADEM1001")

	err := p.Refund(context.Background(), "SPORT-7", 4000)
	if domain.KindOf(err) != domain.KindNotImplemented {
		t.Errorf("expected not implemented, got %v", err)
	}
}

func TestWalletCallbackSignature(t *testing.T) {
	p := NewWalletProvider("https://wallet.example", "key", "signing-secret")

	sig := p.Sign("wal_abc", "7", 4000)
	if !p.VerifyCallback("wal_abc", "7", 4000, sig) {
		t.Error("valid signature rejected")
	}
	if p.VerifyCallback("wal_abc", "7", 4001, sig) {
		t.Error("tampered amount accepted")
	}
	if p.VerifyCallback("wal_abc", "8", 4000, sig) {
		t.Error("tampered booking id accepted")
	}
}
