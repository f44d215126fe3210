package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type memLedgerState struct {
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
}

func newMemLedgerState() *memLedgerState {
	return &memLedgerState{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}
}

func (s *memLedgerState) TokenBalance(addr common.Address) (*big.Int, error) {
	if b, ok := s.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (s *memLedgerState) SetTokenBalance(addr common.Address, amount *big.Int) error {
	s.balances[addr] = new(big.Int).Set(amount)
	return nil
}

func (s *memLedgerState) TokenAllowance(owner, spender common.Address) (*big.Int, error) {
	if a, ok := s.allowances[[2]common.Address{owner, spender}]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (s *memLedgerState) SetTokenAllowance(owner, spender common.Address, amount *big.Int) error {
	s.allowances[[2]common.Address{owner, spender}] = new(big.Int).Set(amount)
	return nil
}

var (
	authority = common.BytesToAddress([]byte("authority"))
	alice     = common.BytesToAddress([]byte("alice"))
	bob       = common.BytesToAddress([]byte("bob"))
	module    = common.BytesToAddress([]byte("module"))
)

func newTestLedger() *Ledger {
	ledger := NewLedger(authority)
	ledger.SetState(newMemLedgerState())
	return ledger
}

func TestMintRequiresAuthority(t *testing.T) {
	ledger := newTestLedger()
	if err := ledger.Mint(alice, alice, big.NewInt(100)); !errors.Is(err, ErrNotMintAuthority) {
		t.Fatalf("got %v want %v", err, ErrNotMintAuthority)
	}
	if err := ledger.Mint(authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := ledger.BalanceOf(alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("minted balance: %s", balance)
	}
}

func TestTransferMovesBalance(t *testing.T) {
	ledger := newTestLedger()
	if err := ledger.Mint(authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	aliceBalance, _ := ledger.BalanceOf(alice)
	bobBalance, _ := ledger.BalanceOf(bob)
	if aliceBalance.Cmp(big.NewInt(60)) != 0 || bobBalance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("balances after transfer: %s / %s", aliceBalance, bobBalance)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(61)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v want %v", err, ErrInsufficientBalance)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ledger := newTestLedger()
	if err := ledger.Mint(authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(module, alice, module, big.NewInt(50)); !errors.Is(err, ErrInsufficientAllow) {
		t.Fatalf("got %v want %v", err, ErrInsufficientAllow)
	}
	if err := ledger.Approve(alice, module, big.NewInt(70)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(module, alice, module, big.NewInt(50)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	remaining, err := ledger.Allowance(alice, module)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if remaining.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("allowance after spend: %s", remaining)
	}
	moduleBalance, _ := ledger.BalanceOf(module)
	if moduleBalance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("module balance: %s", moduleBalance)
	}
	if err := ledger.TransferFrom(module, alice, module, big.NewInt(21)); !errors.Is(err, ErrInsufficientAllow) {
		t.Fatalf("got %v want %v", err, ErrInsufficientAllow)
	}
}

func TestModuleGatewayBindsCustody(t *testing.T) {
	ledger := newTestLedger()
	gateway := NewModuleGateway(ledger, module)
	if err := ledger.Mint(authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(alice, module, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := gateway.TransferFrom(alice, module, big.NewInt(80)); err != nil {
		t.Fatalf("gateway transferFrom: %v", err)
	}
	reserve, _ := gateway.BalanceOf(module)
	if reserve.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("custody balance: %s", reserve)
	}
	if err := gateway.Transfer(bob, big.NewInt(30)); err != nil {
		t.Fatalf("gateway transfer: %v", err)
	}
	bobBalance, _ := gateway.BalanceOf(bob)
	if bobBalance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("payout balance: %s", bobBalance)
	}
}
