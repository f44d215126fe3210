package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TypeStaked captures principal locked into program custody.
	TypeStaked = "staking.staked"
	// TypeRedeemed captures accrued rewards paid out of the program reserve.
	TypeRedeemed = "staking.redeemed"
	// TypeCompounded captures rewards folded back into locked principal.
	TypeCompounded = "staking.compounded"
	// TypeWithdrawn captures principal released back to the account.
	TypeWithdrawn = "staking.withdrawn"
)

// Staked is emitted when an account locks additional principal.
type Staked struct {
	Account    common.Address
	Amount     *big.Int
	NewBalance *big.Int
	DailyRate  *big.Int
}

func (Staked) EventType() string { return TypeStaked }

// Redeemed is emitted when accrued rewards are transferred to the account.
type Redeemed struct {
	Account common.Address
	Amount  *big.Int
}

func (Redeemed) EventType() string { return TypeRedeemed }

// Compounded is emitted when accrued rewards are added to locked principal
// without any external transfer.
type Compounded struct {
	Account    common.Address
	Amount     *big.Int
	NewBalance *big.Int
	DailyRate  *big.Int
}

func (Compounded) EventType() string { return TypeCompounded }

// Withdrawn is emitted when locked principal is released to the account.
type Withdrawn struct {
	Account    common.Address
	Amount     *big.Int
	NewBalance *big.Int
	DailyRate  *big.Int
}

func (Withdrawn) EventType() string { return TypeWithdrawn }
