package state

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakeledger/native/staking"
)

// ErrStakingNotInitialised is returned when the program-global record is read
// before InitializeStakingGlobal has run.
var ErrStakingNotInitialised = errors.New("state: staking program not initialised")

// The stored representations mirror the deterministic RLP layout. Timestamps
// are persisted unsigned; the in-memory types use int64 to match time.Time.
type storedStakingGlobal struct {
	Manager   common.Address
	Token     common.Address
	StartUnix uint64
}

type storedAccountRecord struct {
	LockedBalance    *big.Int
	DailyRate        *big.Int
	LastRedeemedUnix uint64
}

// InitializeStakingGlobal writes the program-global singleton on first run.
// Manager, token address and start timestamp are set exactly once; repeat
// calls return the previously stored record untouched.
func (m *Manager) InitializeStakingGlobal(manager, token common.Address, startUnix int64) (*staking.GlobalState, error) {
	existing, err := m.StakingGlobal()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrStakingNotInitialised) {
		return nil, err
	}
	if startUnix < 0 {
		startUnix = 0
	}
	stored := &storedStakingGlobal{
		Manager:   manager,
		Token:     token,
		StartUnix: uint64(startUnix),
	}
	if err := m.put(hashedKey(stakingGlobalKeyBytes), stored); err != nil {
		return nil, err
	}
	return &staking.GlobalState{Manager: manager, Token: token, StartUnix: startUnix}, nil
}

// StakingGlobal loads the program-global singleton.
func (m *Manager) StakingGlobal() (*staking.GlobalState, error) {
	stored := new(storedStakingGlobal)
	ok, err := m.get(hashedKey(stakingGlobalKeyBytes), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakingNotInitialised
	}
	return &staking.GlobalState{
		Manager:   stored.Manager,
		Token:     stored.Token,
		StartUnix: int64(stored.StartUnix),
	}, nil
}

// GetAccountRecord loads the staking record for an account. A missing record
// returns nil so the engine can apply its zero-value defaults.
func (m *Manager) GetAccountRecord(addr common.Address) (*staking.AccountRecord, error) {
	stored := new(storedAccountRecord)
	ok, err := m.get(hashedKey(stakingAccountPrefix, addr.Bytes()), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	record := &staking.AccountRecord{
		Address:          addr,
		LockedBalance:    big.NewInt(0),
		DailyRate:        big.NewInt(0),
		LastRedeemedUnix: int64(stored.LastRedeemedUnix),
	}
	if stored.LockedBalance != nil {
		record.LockedBalance = new(big.Int).Set(stored.LockedBalance)
	}
	if stored.DailyRate != nil {
		record.DailyRate = new(big.Int).Set(stored.DailyRate)
	}
	return record, nil
}

// PutAccountRecord persists the complete record under a single key so the
// balance, rate and settlement timestamp always commit together.
func (m *Manager) PutAccountRecord(record *staking.AccountRecord) error {
	if record == nil {
		return errors.New("state: nil staking record")
	}
	ts := record.LastRedeemedUnix
	if ts < 0 {
		ts = 0
	}
	stored := &storedAccountRecord{
		LockedBalance:    big.NewInt(0),
		DailyRate:        big.NewInt(0),
		LastRedeemedUnix: uint64(ts),
	}
	if record.LockedBalance != nil {
		stored.LockedBalance = new(big.Int).Set(record.LockedBalance)
	}
	if record.DailyRate != nil {
		stored.DailyRate = new(big.Int).Set(record.DailyRate)
	}
	return m.put(hashedKey(stakingAccountPrefix, record.Address.Bytes()), stored)
}
