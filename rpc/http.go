package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"stakeledger/native/staking"
	"stakeledger/native/token"
	"stakeledger/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "STAKELEDGER_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020

	codeInsufficientBalance   = -32030
	codeInsufficientAllowance = -32031
	codeTransferFailed        = -32032
	codeTooEarly              = -32033
	codeNothingStaked         = -32034
	codeOverflow              = -32035
	codeOperationInProgress   = -32036
)

type Server struct {
	engine  *staking.Engine
	ledger  *token.Ledger
	manager common.Address
	metrics *metrics.StakingMetrics

	authToken     string
	ratePerMinute float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer wires the JSON-RPC surface over the staking engine and the token
// ledger. The bearer token protecting mutating methods is read from
// STAKELEDGER_RPC_TOKEN; an empty token disables auth for local development.
func NewServer(engine *staking.Engine, ledger *token.Ledger, manager common.Address, ratePerMinute float64) *Server {
	return &Server{
		engine:        engine,
		ledger:        ledger,
		manager:       manager,
		metrics:       metrics.Staking(),
		authToken:     strings.TrimSpace(os.Getenv(authTokenEnv)),
		ratePerMinute: ratePerMinute,
		limiters:      make(map[string]*rate.Limiter),
	}
}

// Start serves the RPC endpoint and the prometheus scrape handler until the
// listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if mutating(req.Method) {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, authErr.Error(), nil)
			return
		}
		if !s.allow(clientID(r)) {
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
			return
		}
	}

	switch req.Method {
	case "staking_stake":
		s.handleStake(w, &req)
	case "staking_redeem":
		s.handleRedeem(w, &req)
	case "staking_autoStack":
		s.handleAutoStack(w, &req)
	case "staking_withdraw":
		s.handleWithdraw(w, &req)
	case "staking_getRedeemable":
		s.handleGetRedeemable(w, &req)
	case "staking_getAccount":
		s.handleGetAccount(w, &req)
	case "staking_getLockedBalance":
		s.handleGetLockedBalance(w, &req)
	case "staking_getDailyRate":
		s.handleGetDailyRate(w, &req)
	case "staking_getLastRedeemed":
		s.handleGetLastRedeemed(w, &req)
	case "staking_getReserve":
		s.handleGetReserve(w, &req)
	case "staking_getStartDate":
		s.handleGetStartDate(w, &req)
	case "staking_getDaysSinceStart":
		s.handleGetDaysSinceStart(w, &req)
	case "token_balanceOf":
		s.handleTokenBalanceOf(w, &req)
	case "token_allowance":
		s.handleTokenAllowance(w, &req)
	case "token_approve":
		s.handleTokenApprove(w, &req)
	case "token_mint":
		s.handleTokenMint(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
	}
}

func mutating(method string) bool {
	switch method {
	case "staking_stake", "staking_redeem", "staking_autoStack", "staking_withdraw",
		"token_approve", "token_mint":
		return true
	}
	return false
}

func (s *Server) requireAuth(r *http.Request) error {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return errors.New("missing Authorization header")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || strings.TrimSpace(header[len(prefix):]) != s.authToken {
		return errors.New("invalid bearer token")
	}
	return nil
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) allow(client string) bool {
	if s.ratePerMinute <= 0 {
		return true
	}
	s.mu.Lock()
	limiter, ok := s.limiters[client]
	if !ok {
		burst := int(s.ratePerMinute)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(s.ratePerMinute/60), burst)
		s.limiters[client] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

// errorToRPC maps engine and ledger sentinels onto stable JSON-RPC codes so
// callers can branch on the failure kind.
func errorToRPC(err error) (int, string) {
	switch {
	case errors.Is(err, staking.ErrInvalidAmount), errors.Is(err, token.ErrInvalidAmount):
		return codeInvalidParams, err.Error()
	case errors.Is(err, staking.ErrInsufficientBalance), errors.Is(err, token.ErrInsufficientBalance):
		return codeInsufficientBalance, err.Error()
	case errors.Is(err, staking.ErrInsufficientAllowance), errors.Is(err, token.ErrInsufficientAllow):
		return codeInsufficientAllowance, err.Error()
	case errors.Is(err, staking.ErrTransferFailed):
		return codeTransferFailed, err.Error()
	case errors.Is(err, staking.ErrTooEarly):
		return codeTooEarly, err.Error()
	case errors.Is(err, staking.ErrNothingStaked):
		return codeNothingStaked, err.Error()
	case errors.Is(err, staking.ErrArithmeticOverflow):
		return codeOverflow, err.Error()
	case errors.Is(err, staking.ErrOperationInProgress):
		return codeOperationInProgress, err.Error()
	case errors.Is(err, token.ErrNotMintAuthority):
		return codeUnauthorized, err.Error()
	}
	return codeServerError, err.Error()
}
