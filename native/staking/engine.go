package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakeledger/core/events"
)

// TokenGateway is the command/query surface of the fungible-token ledger the
// program holds and moves balances on. It is the only trust-boundary
// crossing in the engine; Transfer moves tokens out of program custody and
// TransferFrom pulls approved tokens into it.
type TokenGateway interface {
	BalanceOf(account common.Address) (*big.Int, error)
	Allowance(owner, spender common.Address) (*big.Int, error)
	Transfer(to common.Address, amount *big.Int) error
	TransferFrom(from, to common.Address, amount *big.Int) error
}

type engineState interface {
	StakingGlobal() (*GlobalState, error)
	GetAccountRecord(addr common.Address) (*AccountRecord, error)
	PutAccountRecord(record *AccountRecord) error
}

// Engine orchestrates the staking ledger's settlement operations: stake,
// redeem, compound and partial withdrawal, plus their read-only projections.
// Every mutating operation holds the per-account busy guard across its
// external token calls, so a re-entrant invocation for the same account is
// rejected rather than interleaved with a half-committed settlement.
type Engine struct {
	state         engineState
	gateway       TokenGateway
	clock         Clock
	moduleAddress common.Address
	guard         *accountGuard
	emitter       events.Emitter
}

// NewEngine constructs a staking engine holding custody at moduleAddr and
// moving value through the supplied token gateway.
func NewEngine(moduleAddr common.Address, gateway TokenGateway) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		gateway:       gateway,
		clock:         SystemClock{},
		guard:         newAccountGuard(),
		emitter:       events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetClock overrides the time source, primarily for deterministic tests.
func (e *Engine) SetClock(clock Clock) {
	if e == nil || clock == nil {
		return
	}
	e.clock = clock
}

// SetEmitter wires the engine to an event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil || emitter == nil {
		return
	}
	e.emitter = emitter
}

// ModuleAddress returns the custody address the program holds tokens under.
func (e *Engine) ModuleAddress() common.Address { return e.moduleAddress }

func (e *Engine) nowUnix() int64 { return e.clock.Now().Unix() }

// Stake locks amount of the account's externally-held tokens into program
// custody. First-time stakers must hold at least MinimumFirstStake
// externally and every staker must have approved the module for at least
// amount. The settlement timestamp is refreshed to the current time on every
// accepted stake, including the account's first.
func (e *Engine) Stake(account common.Address, amount *big.Int) (*AccountRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.gateway == nil {
		return nil, errNilGateway
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.guard.begin(account); err != nil {
		return nil, err
	}
	defer e.guard.end(account)

	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}

	external, err := e.gateway.BalanceOf(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if record.LockedBalance.Sign() == 0 && external.Cmp(MinimumFirstStake) < 0 {
		return nil, ErrInsufficientBalance
	}
	allowance, err := e.gateway.Allowance(account, e.moduleAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if allowance.Cmp(amount) < 0 {
		return nil, ErrInsufficientAllowance
	}
	if external.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}

	newBalance := new(big.Int).Add(record.LockedBalance, amount)
	newRate, err := DailyRate(newBalance)
	if err != nil {
		return nil, err
	}

	if err := e.gateway.TransferFrom(account, e.moduleAddress, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	record.LockedBalance = newBalance
	record.DailyRate = newRate
	record.LastRedeemedUnix = e.nowUnix()
	if err := e.state.PutAccountRecord(record); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Staked{
		Account:    account,
		Amount:     new(big.Int).Set(amount),
		NewBalance: new(big.Int).Set(newBalance),
		DailyRate:  new(big.Int).Set(newRate),
	})
	return record.Clone(), nil
}

// Redeemable returns the reward the account could redeem right now. Mutating
// operations re-derive this internally rather than trusting an earlier
// query, since time advances between calls.
func (e *Engine) Redeemable(account common.Address) (*big.Int, error) {
	return e.RedeemableAt(account, e.nowUnix())
}

// RedeemableAt projects the redeemable reward at the given unix time:
// rate times whole days elapsed since the last settlement, capped at the
// locked balance because rewards are paid out of the same pool they accrue
// against.
func (e *Engine) RedeemableAt(account common.Address, atUnix int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}
	return redeemableAt(record, atUnix)
}

func redeemableAt(record *AccountRecord, atUnix int64) (*big.Int, error) {
	daysDiff := DaysBetween(record.LastRedeemedUnix, atUnix)
	if daysDiff == 0 {
		return nil, ErrTooEarly
	}
	if record.LockedBalance.Sign() <= 0 {
		return nil, ErrNothingStaked
	}
	raw := new(big.Int).Mul(record.DailyRate, new(big.Int).SetUint64(daysDiff))
	if raw.Cmp(record.LockedBalance) > 0 {
		raw.Set(record.LockedBalance)
	}
	return raw, nil
}

// Redeem pays the account's accrued reward out of program custody and
// refreshes the settlement timestamp. The locked balance and daily rate are
// untouched: redeemed tokens come from the program reserve, not the
// account's principal.
func (e *Engine) Redeem(account common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.gateway == nil {
		return nil, errNilGateway
	}
	if err := e.guard.begin(account); err != nil {
		return nil, err
	}
	defer e.guard.end(account)

	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}
	now := e.nowUnix()
	amount, err := redeemableAt(record, now)
	if err != nil {
		return nil, err
	}

	if err := e.gateway.Transfer(account, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	record.LastRedeemedUnix = now
	if err := e.state.PutAccountRecord(record); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Redeemed{Account: account, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// AutoStack compounds the account's accrued reward directly into its locked
// principal. No external transfer occurs. The compounded amount and the
// updated record are returned.
func (e *Engine) AutoStack(account common.Address) (*big.Int, *AccountRecord, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if err := e.guard.begin(account); err != nil {
		return nil, nil, err
	}
	defer e.guard.end(account)

	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, nil, err
	}
	now := e.nowUnix()
	redeemable, err := redeemableAt(record, now)
	if err != nil {
		return nil, nil, err
	}

	newBalance := new(big.Int).Add(record.LockedBalance, redeemable)
	newRate, err := DailyRate(newBalance)
	if err != nil {
		return nil, nil, err
	}

	record.LockedBalance = newBalance
	record.DailyRate = newRate
	record.LastRedeemedUnix = now
	if err := e.state.PutAccountRecord(record); err != nil {
		return nil, nil, err
	}

	e.emitter.Emit(events.Compounded{
		Account:    account,
		Amount:     new(big.Int).Set(redeemable),
		NewBalance: new(big.Int).Set(newBalance),
		DailyRate:  new(big.Int).Set(newRate),
	})
	return redeemable, record.Clone(), nil
}

// WithdrawPartial releases requested tokens of locked principal back to the
// account. The request may dip into the accrued reward: it is accepted as
// long as it does not exceed locked balance plus redeemable reward, and the
// locked balance saturates at zero when the excess is covered by reward.
// The debit is committed only after the external transfer succeeds, so a
// failed transfer leaves the record exactly as it was.
func (e *Engine) WithdrawPartial(account common.Address, requested *big.Int) (*AccountRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.gateway == nil {
		return nil, errNilGateway
	}
	if requested == nil || requested.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.guard.begin(account); err != nil {
		return nil, err
	}
	defer e.guard.end(account)

	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}
	now := e.nowUnix()
	redeemable, err := redeemableAt(record, now)
	if err != nil {
		return nil, err
	}
	available := new(big.Int).Add(record.LockedBalance, redeemable)
	if available.Cmp(requested) < 0 {
		return nil, ErrInsufficientBalance
	}

	newBalance := new(big.Int).Sub(record.LockedBalance, requested)
	if newBalance.Sign() < 0 {
		newBalance.SetInt64(0)
	}
	newRate, err := DailyRate(newBalance)
	if err != nil {
		return nil, err
	}

	if err := e.gateway.Transfer(account, requested); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	record.LockedBalance = newBalance
	record.DailyRate = newRate
	record.LastRedeemedUnix = now
	if err := e.state.PutAccountRecord(record); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Withdrawn{
		Account:    account,
		Amount:     new(big.Int).Set(requested),
		NewBalance: new(big.Int).Set(newBalance),
		DailyRate:  new(big.Int).Set(newRate),
	})
	return record.Clone(), nil
}

// LockedBalance returns the account's principal currently held in custody.
func (e *Engine) LockedBalance(account common.Address) (*big.Int, error) {
	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}
	return record.LockedBalance, nil
}

// AccountDailyRate returns the account's current per-day reward accrual.
func (e *Engine) AccountDailyRate(account common.Address) (*big.Int, error) {
	record, err := e.ensureRecord(account)
	if err != nil {
		return nil, err
	}
	return record.DailyRate, nil
}

// LastRedeemed returns the unix time of the account's last settlement, zero
// when the account has never settled.
func (e *Engine) LastRedeemed(account common.Address) (int64, error) {
	record, err := e.ensureRecord(account)
	if err != nil {
		return 0, err
	}
	return record.LastRedeemedUnix, nil
}

// ProgramReserve reports the total token balance held in program custody.
func (e *Engine) ProgramReserve() (*big.Int, error) {
	if e == nil || e.gateway == nil {
		return nil, errNilGateway
	}
	return e.gateway.BalanceOf(e.moduleAddress)
}

// StartDate returns the unix time the staking program was initialised.
func (e *Engine) StartDate() (int64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	global, err := e.state.StakingGlobal()
	if err != nil {
		return 0, err
	}
	return global.StartUnix, nil
}

// DaysSinceStart returns the whole days elapsed since program start.
func (e *Engine) DaysSinceStart() (uint64, error) {
	start, err := e.StartDate()
	if err != nil {
		return 0, err
	}
	return DaysBetween(start, e.nowUnix()), nil
}

func (e *Engine) ensureRecord(account common.Address) (*AccountRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.GetAccountRecord(account)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &AccountRecord{Address: account}
	}
	if record.LockedBalance == nil {
		record.LockedBalance = big.NewInt(0)
	}
	if record.DailyRate == nil {
		record.DailyRate = big.NewInt(0)
	}
	return record, nil
}
