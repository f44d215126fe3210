package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeledger/config"
	"stakeledger/core/events"
	"stakeledger/core/state"
	"stakeledger/native/staking"
	"stakeledger/native/token"
	"stakeledger/observability/logging"
	"stakeledger/rpc"
	"stakeledger/storage"
)

// Module addresses are derived deterministically from their labels so custody
// never collides with an externally controlled account.
func moduleAddress(label string) common.Address {
	return common.BytesToAddress(ethcrypto.Keccak256([]byte(label))[12:])
}

// logEmitter publishes ledger events through the structured logger.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	l.logger.Info("ledger event", slog.String("type", evt.EventType()), slog.Any("payload", evt))
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("stakeledgerd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	custody := moduleAddress("stakeledger/module/staking")
	tokenAddr := moduleAddress("stakeledger/module/token")
	clock := staking.SystemClock{}

	global, err := manager.InitializeStakingGlobal(cfg.ManagerAddress(), tokenAddr, clock.Now().Unix())
	if err != nil {
		logger.Error("failed to initialise staking program", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("staking program ready",
		slog.String("manager", global.Manager.Hex()),
		slog.String("custody", custody.Hex()),
		slog.Int64("startDate", global.StartUnix),
	)

	ledger := token.NewLedger(global.Manager)
	ledger.SetState(manager)
	gateway := token.NewModuleGateway(ledger, custody)

	engine := staking.NewEngine(custody, gateway)
	engine.SetState(manager)
	engine.SetEmitter(logEmitter{logger: logger})

	server := rpc.NewServer(engine, ledger, global.Manager, cfg.RateLimitPerMinute)
	logger.Info("starting JSON-RPC server", slog.String("addr", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
