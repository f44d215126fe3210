package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	errNilState            = errors.New("token ledger: state not configured")
	ErrInvalidAmount       = errors.New("token ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
	ErrInsufficientAllow   = errors.New("token ledger: insufficient allowance")
	ErrNotMintAuthority    = errors.New("token ledger: caller is not the mint authority")
)

type ledgerState interface {
	TokenBalance(addr common.Address) (*big.Int, error)
	SetTokenBalance(addr common.Address, amount *big.Int) error
	TokenAllowance(owner, spender common.Address) (*big.Int, error)
	SetTokenAllowance(owner, spender common.Address, amount *big.Int) error
}

// Ledger is the in-process fungible-token ledger the staking program
// operates on: balances, allowances and the transfer commands, persisted
// through the durable state manager. Issuance is gated to a single mint
// authority configured at construction.
type Ledger struct {
	state         ledgerState
	mintAuthority common.Address
}

// NewLedger constructs a token ledger whose supply is controlled by the
// given mint authority.
func NewLedger(mintAuthority common.Address) *Ledger {
	return &Ledger{mintAuthority: mintAuthority}
}

// SetState wires the ledger to the external persistence layer.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// BalanceOf returns the smallest-unit balance held by account.
func (l *Ledger) BalanceOf(account common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenBalance(account)
}

// Allowance returns the amount spender may move on owner's behalf.
func (l *Ledger) Allowance(owner, spender common.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenAllowance(owner, spender)
}

// Approve sets spender's allowance over owner's balance. Approvals overwrite
// rather than accumulate.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.state.SetTokenAllowance(owner, spender, amount)
}

// Mint credits newly issued tokens to an account. Only the configured mint
// authority may issue.
func (l *Ledger) Mint(caller, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if caller != l.mintAuthority {
		return ErrNotMintAuthority
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.TokenBalance(to)
	if err != nil {
		return err
	}
	return l.state.SetTokenBalance(to, new(big.Int).Add(balance, amount))
}

// Transfer moves amount from the sender's balance to the recipient.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance, err := l.state.TokenBalance(to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(to, new(big.Int).Add(toBalance, amount))
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance, err := l.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllow
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amount))
}
