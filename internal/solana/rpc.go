package solana

import "context"

// RPCClient defines the subset of Solana JSON-RPC the monitor needs.
type RPCClient interface {
	// GetSignaturesForAddress retrieves recent signatures for an address.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a transaction by signature in jsonParsed encoding.
	// Returns nil, nil when the node does not know the signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// SignatureInfo is one entry of getSignaturesForAddress, newest first.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{} // non-nil when the transaction failed
}

// SignaturesOpts narrows getSignaturesForAddress. Zero Limit means the
// node default.
type SignaturesOpts struct {
	Limit int
}

// Transaction is a jsonParsed Solana transaction.
type Transaction struct {
	Slot       int64
	BlockTime  *int64 // Unix seconds, nil if unknown
	Signatures []string
	Message    *TransactionMessage
	Meta       *TransactionMeta
}

// Signature returns the first (fee payer) signature, or "".
func (t *Transaction) Signature() string {
	if len(t.Signatures) == 0 {
		return ""
	}
	return t.Signatures[0]
}

// TransactionMessage holds account keys and top-level instructions.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction is a top-level instruction. Accounts is empty for
// instructions the node decoded itself (system, spl-token, ...).
type Instruction struct {
	ProgramID string
	Accounts  []string
}

// TransactionMeta contains execution metadata.
type TransactionMeta struct {
	Err               interface{}
	LogMessages       []string
	PreBalances       []uint64 // lamports, indexed like AccountKeys
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is an SPL token balance snapshot.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       string // raw integer amount
	Decimals     int
}
