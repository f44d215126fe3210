package staking

import (
	"math/big"

	"github.com/holiman/uint256"
)

// TokenDecimals is the fixed-point precision of the staked token's smallest
// unit. The scaling constant and the minimum first-stake threshold derived
// from it are protocol constants, not runtime configuration.
const TokenDecimals = 12

const (
	yieldNumerator   = 7
	yieldDenominator = 100
	daysPerYear      = 365
)

var (
	// UnitScale is 10^TokenDecimals, one whole token in smallest units.
	UnitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	// MinimumFirstStake is the external balance an account must hold before
	// its first stake is accepted: 1000 whole tokens.
	MinimumFirstStake = new(big.Int).Mul(big.NewInt(1000), UnitScale)
)

// DailyRate derives the smallest-unit reward accrued per whole day from a
// locked principal balance: a simple 7% annual yield spread evenly across
// 365 days, truncating at each division.
//
//	rate = floor((balance + floor(balance*7/100)) / 365)
//
// Intermediate values are required to fit an unsigned 256-bit word; wider
// inputs return ErrArithmeticOverflow instead of wrapping.
func DailyRate(balance *big.Int) (*big.Int, error) {
	if balance == nil || balance.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(balance); overflow {
		return nil, ErrArithmeticOverflow
	}
	annual := new(big.Int).Mul(balance, big.NewInt(yieldNumerator))
	annual.Quo(annual, big.NewInt(yieldDenominator))
	total := new(big.Int).Add(balance, annual)
	if _, overflow := uint256.FromBig(total); overflow {
		return nil, ErrArithmeticOverflow
	}
	return total.Quo(total, big.NewInt(daysPerYear)), nil
}
