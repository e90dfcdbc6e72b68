package stub

import (
	"context"
	"sync"

	"pumpfun-monitor/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Unknown signatures resolve to nil, like a node that has not seen them.
type RPCClient struct {
	mu           sync.Mutex
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo

	// Err, when set, is returned by every call.
	Err error
	// TxErr maps a signature to an error returned by GetTransaction.
	TxErr map[string]error

	sigCalls int
	txCalls  int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		TxErr:        make(map[string]error),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txCalls++

	if c.Err != nil {
		return nil, c.Err
	}
	if err := c.TxErr[signature]; err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sigCalls++

	if c.Err != nil {
		return nil, c.Err
	}
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}
	return append([]solana.SignatureInfo(nil), sigs...), nil
}

// AddTransaction adds a transaction to the stub store, keyed by its first signature.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature()] = tx
}

// AddSignatures adds signatures for an address to the stub store.
func (c *RPCClient) AddSignatures(address string, sigs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sigs {
		c.Signatures[address] = append(c.Signatures[address], solana.SignatureInfo{Signature: s})
	}
}

// SetErr sets the error returned by every call.
func (c *RPCClient) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

// Calls returns how many signature and transaction lookups were made.
func (c *RPCClient) Calls() (signatures, transactions int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sigCalls, c.txCalls
}
