package solana

import (
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidAddress is returned for strings that are not 32-byte base58 keys.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidSignature is returned for strings that are not 64-byte base58 signatures.
	ErrInvalidSignature = errors.New("invalid signature")
)

// SystemProgramID is the native System Program address.
var SystemProgramID = solanago.SystemProgramID.String()

// PumpFunProgramID is the pump.fun bonding-curve program on mainnet.
const PumpFunProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// ValidateAddress checks that s is a well-formed public key.
func ValidateAddress(s string) error {
	if _, err := solanago.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	return nil
}

// ValidateSignature checks that s decodes to a 64-byte ed25519 signature.
func ValidateSignature(s string) error {
	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSignature, s, err)
	}
	if len(decoded) != 64 {
		return fmt.Errorf("%w %q: length %d", ErrInvalidSignature, s, len(decoded))
	}
	return nil
}
