package parser

import "pumpfun-monitor/internal/solana"

// mintAccountIndex is the mint's position in the bonding-curve program's
// buy/sell account list. It is tied to that program's instruction layout.
const mintAccountIndex = 4

// mintAccount returns the mint address of a program instruction, or "".
func mintAccount(ix *solana.Instruction) string {
	if ix == nil || len(ix.Accounts) <= mintAccountIndex {
		return ""
	}
	return ix.Accounts[mintAccountIndex]
}
