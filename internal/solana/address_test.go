package solana

import (
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"pump program", PumpFunProgramID, false},
		{"system program", SystemProgramID, false},
		{"empty", "", true},
		{"not base58", "0OIl-not-an-address", true},
		{"too short", "abc", true},
		{"signature length", base58.Encode(make([]byte, 64)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	if err := ValidateSignature(base58.Encode(raw)); err != nil {
		t.Errorf("unexpected error for 64-byte signature: %v", err)
	}

	if err := ValidateSignature(PumpFunProgramID); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for 32-byte value, got %v", err)
	}

	if err := ValidateSignature("not+base58"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for bad alphabet, got %v", err)
	}
}

func TestSystemProgramID(t *testing.T) {
	if SystemProgramID != "11111111111111111111111111111111" {
		t.Errorf("unexpected system program id %s", SystemProgramID)
	}
}
