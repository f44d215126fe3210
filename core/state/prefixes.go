package state

var (
	stakingGlobalKeyBytes = []byte("staking/global")
	stakingAccountPrefix  = []byte("staking/account/")
	tokenBalancePrefix    = []byte("token/balance/")
	tokenAllowancePrefix  = []byte("token/allowance/")
)
