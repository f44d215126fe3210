package staking

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// accountGuard serialises mutating operations per account. Settlement calls
// out to the token gateway mid-operation, and in the deployment environments
// this ledger targets such calls can re-enter the program; the busy flag
// rejects the re-entrant call instead of letting it observe half-settled
// state. Different accounts never contend.
type accountGuard struct {
	mu   sync.Mutex
	busy map[common.Address]struct{}
}

func newAccountGuard() *accountGuard {
	return &accountGuard{busy: make(map[common.Address]struct{})}
}

func (g *accountGuard) begin(account common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, inFlight := g.busy[account]; inFlight {
		return ErrOperationInProgress
	}
	g.busy[account] = struct{}{}
	return nil
}

func (g *accountGuard) end(account common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, account)
}
