package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ModuleGateway binds the token ledger to the staking program's custody
// address. It satisfies the staking engine's TokenGateway interface:
// outbound transfers debit program custody and inbound transfer-from calls
// act with the module as the approved spender.
type ModuleGateway struct {
	ledger *Ledger
	module common.Address
}

// NewModuleGateway wraps ledger with the program custody address.
func NewModuleGateway(ledger *Ledger, module common.Address) *ModuleGateway {
	return &ModuleGateway{ledger: ledger, module: module}
}

func (g *ModuleGateway) BalanceOf(account common.Address) (*big.Int, error) {
	return g.ledger.BalanceOf(account)
}

func (g *ModuleGateway) Allowance(owner, spender common.Address) (*big.Int, error) {
	return g.ledger.Allowance(owner, spender)
}

// Transfer pays amount out of program custody.
func (g *ModuleGateway) Transfer(to common.Address, amount *big.Int) error {
	return g.ledger.Transfer(g.module, to, amount)
}

// TransferFrom pulls approved tokens from the owner, with the module acting
// as spender.
func (g *ModuleGateway) TransferFrom(from, to common.Address, amount *big.Int) error {
	return g.ledger.TransferFrom(g.module, from, to, amount)
}
