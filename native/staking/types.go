package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GlobalState is the program-wide singleton written once when the staking
// program is initialised. Manager and Token are set-once identifiers; the
// start timestamp anchors the days-since-start projection.
type GlobalState struct {
	// Manager is the administrator that deployed the program.
	Manager common.Address
	// Token identifies the fungible-token ledger the program operates on.
	Token common.Address
	// StartUnix is the program creation time in whole seconds.
	StartUnix int64
}

// AccountRecord is the per-account staking position. The three fields always
// commit together; a record with a zero balance is the inactive state.
type AccountRecord struct {
	// Address is the account identifier the record is keyed by.
	Address common.Address
	// LockedBalance is the principal held in program custody, in the
	// token's smallest unit.
	LockedBalance *big.Int
	// DailyRate is the smallest-unit reward accrued per whole day. It is
	// recomputed from LockedBalance on every mutation.
	DailyRate *big.Int
	// LastRedeemedUnix is the unix time of the account's last settlement,
	// zero when the account has never settled.
	LastRedeemedUnix int64
}

// Clone returns a deep copy so callers cannot alias engine-owned state.
func (r *AccountRecord) Clone() *AccountRecord {
	if r == nil {
		return nil
	}
	clone := &AccountRecord{
		Address:          r.Address,
		LastRedeemedUnix: r.LastRedeemedUnix,
		LockedBalance:    big.NewInt(0),
		DailyRate:        big.NewInt(0),
	}
	if r.LockedBalance != nil {
		clone.LockedBalance = new(big.Int).Set(r.LockedBalance)
	}
	if r.DailyRate != nil {
		clone.DailyRate = new(big.Int).Set(r.DailyRate)
	}
	return clone
}
