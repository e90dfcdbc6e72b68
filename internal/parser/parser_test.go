package parser

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/solana"
)

const testProgram = solana.PumpFunProgramID

// newTradeTx builds a program transaction where "trader1" pays solLamports
// to "curve1" and the program instruction lists mint at index 4.
func newTradeTx(sig string, logs []string, solLamports uint64) *solana.Transaction {
	bt := int64(1700000000)
	return &solana.Transaction{
		Slot:       10,
		BlockTime:  &bt,
		Signatures: []string{sig},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{"trader1", "curve1", solana.SystemProgramID, testProgram},
			Instructions: []solana.Instruction{
				{ProgramID: "ComputeBudget111111111111111111111111111111"},
				{ProgramID: testProgram, Accounts: []string{"global", "fee", "curve1", "assoc", "MINT1", "trader1"}},
			},
		},
		Meta: &solana.TransactionMeta{
			LogMessages:  logs,
			PreBalances:  []uint64{10_000_000_000, 1_000_000_000, 1, 1},
			PostBalances: []uint64{10_000_000_000 - solLamports, 1_000_000_000 + solLamports - 1000, 1, 1},
		},
	}
}

func TestParser_Parse_Buy(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sigbuy", []string{
		"Program " + testProgram + " invoke [1]",
		"Program log: Instruction: Buy",
		"Program log: 1234.5 tokens bought: done",
	}, 1_500_000_000)

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}

	if got.Signature != "sigbuy" {
		t.Errorf("expected signature sigbuy, got %s", got.Signature)
	}
	if got.Type != domain.TxBuy {
		t.Errorf("expected BUY, got %s", got.Type)
	}
	if got.Mint != "MINT1" {
		t.Errorf("expected mint MINT1, got %s", got.Mint)
	}
	if got.Trader != "trader1" {
		t.Errorf("expected trader1, got %s", got.Trader)
	}
	if got.SolAmount != 1.5 {
		t.Errorf("expected 1.5 SOL, got %v", got.SolAmount)
	}
	if got.TokenAmount != 1234.5 {
		t.Errorf("expected 1234.5 tokens, got %v", got.TokenAmount)
	}
	if got.Timestamp != 1700000000000 {
		t.Errorf("expected timestamp in ms, got %d", got.Timestamp)
	}
	if got.IsBundle {
		t.Error("2 instructions and 3 logs should not be a bundle")
	}
	if got.WhaleDetected {
		t.Error("1.5 SOL should not be a whale")
	}
	if len(got.Logs) != 3 {
		t.Errorf("expected 3 log lines, got %d", len(got.Logs))
	}
}

func TestParser_Parse_Sell(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sigsell", []string{"Program log: Instruction: Sell"}, 2_000_000_000)

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.Type != domain.TxSell {
		t.Errorf("expected SELL, got %s", got.Type)
	}
}

func TestParser_Parse_OtherIsFiltered(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sigother", []string{
		"Program log: Instruction: Create",
		"Program log: something else",
	}, 1_000_000_000)

	if got := p.Parse(tx); got != nil {
		t.Errorf("expected nil for OTHER transaction, got %+v", got)
	}
}

func TestParser_Parse_NoProgramInstruction(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	tx.Message.Instructions = tx.Message.Instructions[:1]

	if got := p.Parse(tx); got != nil {
		t.Errorf("expected nil without program instruction, got %+v", got)
	}
}

func TestParser_Parse_ShortAccountList(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	tx.Message.Instructions[1].Accounts = []string{"a", "b", "c"}

	if got := p.Parse(tx); got != nil {
		t.Errorf("expected nil when mint slot is missing, got %+v", got)
	}
}

func TestParser_Parse_ZeroSol(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 0)
	tx.Meta.PostBalances = append([]uint64{}, tx.Meta.PreBalances...)

	if got := p.Parse(tx); got != nil {
		t.Errorf("expected nil for zero SOL movement, got %+v", got)
	}
}

func TestParser_Parse_SkipsSystemAndProgramAccounts(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	// The system and program accounts move more than anyone else.
	tx.Meta.PreBalances[2] = 100_000_000_000
	tx.Meta.PreBalances[3] = 100_000_000_000

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.Trader != "trader1" {
		t.Errorf("expected trader1, got %s", got.Trader)
	}
	if got.SolAmount != 1 {
		t.Errorf("expected 1 SOL, got %v", got.SolAmount)
	}
}

func TestParser_Parse_BalanceDeltaFallback(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	tx.Meta.PreTokenBalances = []solana.TokenBalance{
		{Mint: "OTHER", Owner: "trader1", Amount: "999", Decimals: 6},
		{Mint: "MINT1", Owner: "trader1", Amount: "2000000", Decimals: 6},
	}
	tx.Meta.PostTokenBalances = []solana.TokenBalance{
		{Mint: "MINT1", Owner: "trader1", Amount: "5000000", Decimals: 6},
	}

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.TokenAmount != 3 {
		t.Errorf("expected 3 tokens from balance delta, got %v", got.TokenAmount)
	}
}

func TestParser_Parse_BalanceDeltaWithoutPre(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{
		"Program log: Instruction: Sell",
		"Program log: tokens sold: unknown",
	}, 1_000_000_000)
	tx.Meta.PostTokenBalances = []solana.TokenBalance{
		{Mint: "MINT1", Owner: "trader1", Amount: "1500", Decimals: 3},
	}

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.TokenAmount != 1.5 {
		t.Errorf("expected 1.5 tokens, got %v", got.TokenAmount)
	}
}

func TestParser_Parse_BundleAndWhale(t *testing.T) {
	p := New(testProgram)

	logs := []string{"Program log: Instruction: Buy"}
	for i := 0; i < 20; i++ {
		logs = append(logs, fmt.Sprintf("Program log: step %d", i))
	}
	tx := newTradeTx("sig", logs, 60_000_000_000)
	tx.Meta.PreBalances[0] = 100_000_000_000
	tx.Meta.PostBalances[0] = 40_000_000_000

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if !got.IsBundle {
		t.Error("21 log lines should mark a bundle")
	}
	if !got.WhaleDetected {
		t.Error("60 SOL should be a whale")
	}
	if len(got.Logs) != LogExcerptLines {
		t.Errorf("expected %d log lines, got %d", LogExcerptLines, len(got.Logs))
	}
}

func TestParser_Parse_BundleByInstructionCount(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	tx.Message.Instructions = append(tx.Message.Instructions,
		solana.Instruction{ProgramID: "a"},
		solana.Instruction{ProgramID: "b"},
	)

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if !got.IsBundle {
		t.Error("4 instructions should mark a bundle")
	}
}

func TestParser_Parse_Idempotent(t *testing.T) {
	p := New(testProgram)
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy", "Program log: 42 tokens bought: x"}, 1_000_000_000)

	first := p.Parse(tx)
	second := p.Parse(tx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parse is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestParser_Parse_MissingBlockTimeUsesClock(t *testing.T) {
	fixed := time.UnixMilli(1710000000123)
	p := New(testProgram, WithClock(func() time.Time { return fixed }))
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy"}, 1_000_000_000)
	tx.BlockTime = nil

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.Timestamp != fixed.UnixMilli() {
		t.Errorf("expected clock timestamp %d, got %d", fixed.UnixMilli(), got.Timestamp)
	}
}

type fixedAmount float64

func (f fixedAmount) TokenAmount(*solana.Transaction, string) float64 { return float64(f) }

func TestParser_WithTokenAmountStrategy(t *testing.T) {
	p := New(testProgram, WithTokenAmountStrategy(fixedAmount(77)))
	tx := newTradeTx("sig", []string{"Program log: Instruction: Buy", "Program log: 5 tokens bought: x"}, 1_000_000_000)

	got := p.Parse(tx)
	if got == nil {
		t.Fatal("expected analyzed transaction, got nil")
	}
	if got.TokenAmount != 77 {
		t.Errorf("expected strategy amount 77, got %v", got.TokenAmount)
	}
}

func TestParser_Parse_NilInput(t *testing.T) {
	p := New(testProgram)
	if got := p.Parse(nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if got := p.Parse(&solana.Transaction{}); got != nil {
		t.Errorf("expected nil for empty transaction, got %+v", got)
	}
}

func TestClassifyLogs(t *testing.T) {
	tests := []struct {
		logs []string
		want domain.TxType
	}{
		{nil, domain.TxOther},
		{[]string{"Program log: Instruction: Buy"}, domain.TxBuy},
		{[]string{"Program log: Instruction: Sell"}, domain.TxSell},
		{[]string{"Program log: Instruction: Sell", "Program log: Instruction: Buy"}, domain.TxBuy},
		{[]string{"Program log: instruction: buy"}, domain.TxOther},
	}

	for i, tt := range tests {
		if got := ClassifyLogs(tt.logs); got != tt.want {
			t.Errorf("case %d: expected %s, got %s", i, tt.want, got)
		}
	}
}

func TestLogAmountStrategy(t *testing.T) {
	tests := []struct {
		line string
		want float64
	}{
		{"Program log: 1000 tokens bought: ok", 1000},
		{"Program log: 12.75 Tokens Sold: ok", 0}, // marker match is case-sensitive
		{"Program log: 12.75 tokens sold: ok", 12.75},
		{"Program log: tokens bought: 55", 0},
		{"Program log: nothing here", 0},
	}

	for _, tt := range tests {
		tx := &solana.Transaction{Meta: &solana.TransactionMeta{LogMessages: []string{tt.line}}}
		if got := (LogAmountStrategy{}).TokenAmount(tx, "m"); got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.line, tt.want, got)
		}
	}
}
