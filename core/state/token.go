package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenBalance returns the smallest-unit token balance held by addr, zero
// when the account has never been funded.
func (m *Manager) TokenBalance(addr common.Address) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.get(hashedKey(tokenBalancePrefix, addr.Bytes()), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// SetTokenBalance overwrites the token balance for addr.
func (m *Manager) SetTokenBalance(addr common.Address, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.put(hashedKey(tokenBalancePrefix, addr.Bytes()), amount)
}

// TokenAllowance returns the amount spender may move on owner's behalf.
func (m *Manager) TokenAllowance(owner, spender common.Address) (*big.Int, error) {
	allowance := new(big.Int)
	ok, err := m.get(hashedKey(tokenAllowancePrefix, owner.Bytes(), spender.Bytes()), allowance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return allowance, nil
}

// SetTokenAllowance overwrites the allowance owner grants to spender.
func (m *Manager) SetTokenAllowance(owner, spender common.Address, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.put(hashedKey(tokenAllowancePrefix, owner.Bytes(), spender.Bytes()), amount)
}
