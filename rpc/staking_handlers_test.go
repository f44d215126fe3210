package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"stakeledger/core/state"
	"stakeledger/native/staking"
	"stakeledger/native/token"
	"stakeledger/storage"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

var (
	testManager = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testStaker  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testModule  = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func newTestServer(t *testing.T) (*Server, *fixedClock) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}

	_, err := manager.InitializeStakingGlobal(testManager, testModule, clock.now.Unix())
	require.NoError(t, err)

	ledger := token.NewLedger(testManager)
	ledger.SetState(manager)
	gateway := token.NewModuleGateway(ledger, testModule)

	engine := staking.NewEngine(testModule, gateway)
	engine.SetState(manager)
	engine.SetClock(clock)

	return NewServer(engine, ledger, testManager, 0), clock
}

func doRPC(t *testing.T, s *Server, method string, params interface{}) RPCResponse {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		require.NoError(t, err)
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: rawParams, ID: 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	s.handle(recorder, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func wholeTokens(n int64) string {
	return new(big.Int).Mul(big.NewInt(n), staking.UnitScale).String()
}

func fundAndApprove(t *testing.T, s *Server, amount int64) {
	t.Helper()
	resp := doRPC(t, s, "token_mint", mintParams{
		Caller: testManager.Hex(),
		To:     testStaker.Hex(),
		Amount: wholeTokens(amount),
	})
	require.Nil(t, resp.Error)
	resp = doRPC(t, s, "token_approve", approveParams{
		Owner:  testStaker.Hex(),
		Amount: wholeTokens(amount),
	})
	require.Nil(t, resp.Error)
}

func TestStakeOverRPC(t *testing.T) {
	s, _ := newTestServer(t)
	fundAndApprove(t, s, 2000)

	resp := doRPC(t, s, "staking_stake", stakeParams{
		Account: testStaker.Hex(),
		Amount:  wholeTokens(1000),
	})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "result must be an object")
	require.Equal(t, wholeTokens(1000), result["lockedBalance"])
	wantRate := new(big.Int).Quo(new(big.Int).Mul(big.NewInt(1070), staking.UnitScale), big.NewInt(365))
	require.Equal(t, wantRate.String(), result["dailyRate"])
}

func TestStakeInsufficientAllowanceCode(t *testing.T) {
	s, _ := newTestServer(t)
	resp := doRPC(t, s, "token_mint", mintParams{
		Caller: testManager.Hex(),
		To:     testStaker.Hex(),
		Amount: wholeTokens(2000),
	})
	require.Nil(t, resp.Error)

	resp = doRPC(t, s, "staking_stake", stakeParams{
		Account: testStaker.Hex(),
		Amount:  wholeTokens(1000),
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInsufficientAllowance, resp.Error.Code)
}

func TestGetRedeemableTooEarlyCode(t *testing.T) {
	s, _ := newTestServer(t)
	fundAndApprove(t, s, 2000)
	resp := doRPC(t, s, "staking_stake", stakeParams{
		Account: testStaker.Hex(),
		Amount:  wholeTokens(1000),
	})
	require.Nil(t, resp.Error)

	resp = doRPC(t, s, "staking_getRedeemable", accountParams{Account: testStaker.Hex()})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeTooEarly, resp.Error.Code)
}

func TestRedeemAfterOneDayOverRPC(t *testing.T) {
	s, clock := newTestServer(t)
	fundAndApprove(t, s, 2000)
	resp := doRPC(t, s, "staking_stake", stakeParams{
		Account: testStaker.Hex(),
		Amount:  wholeTokens(1000),
	})
	require.Nil(t, resp.Error)

	// Fund the program reserve so the reward payout has headroom, then
	// cross the day boundary.
	resp = doRPC(t, s, "token_mint", mintParams{
		Caller: testManager.Hex(),
		To:     testModule.Hex(),
		Amount: wholeTokens(100),
	})
	require.Nil(t, resp.Error)
	clock.now = clock.now.Add(24 * time.Hour)

	resp = doRPC(t, s, "staking_getRedeemable", accountParams{Account: testStaker.Hex()})
	require.Nil(t, resp.Error)
	wantRate := new(big.Int).Quo(new(big.Int).Mul(big.NewInt(1070), staking.UnitScale), big.NewInt(365))
	redeemable := resp.Result.(map[string]interface{})["amount"]
	require.Equal(t, wantRate.String(), redeemable)

	resp = doRPC(t, s, "staking_redeem", accountParams{Account: testStaker.Hex()})
	require.Nil(t, resp.Error)
	paid := resp.Result.(map[string]interface{})["amount"]
	require.Equal(t, wantRate.String(), paid)

	// The principal is untouched by a redeem.
	resp = doRPC(t, s, "staking_getLockedBalance", accountParams{Account: testStaker.Hex()})
	require.Nil(t, resp.Error)
	require.Equal(t, wholeTokens(1000), resp.Result.(map[string]interface{})["amount"])
}

func TestUnknownMethodCode(t *testing.T) {
	s, _ := newTestServer(t)
	resp := doRPC(t, s, "staking_unknown", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	s, _ := newTestServer(t)
	resp := doRPC(t, s, "staking_getLockedBalance", accountParams{Account: "not-an-address"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestMutatingMethodsRequireBearerToken(t *testing.T) {
	s, _ := newTestServer(t)
	s.authToken = "secret"
	fundAndApproveWithAuth(t, s)

	body, err := json.Marshal(RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  "staking_stake",
		Params:  mustParams(t, stakeParams{Account: testStaker.Hex(), Amount: wholeTokens(1000)}),
		ID:      7,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	s.handle(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	recorder = httptest.NewRecorder()
	s.handle(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp RPCResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)
}

func mustParams(t *testing.T, params interface{}) []json.RawMessage {
	t.Helper()
	encoded, err := json.Marshal(params)
	require.NoError(t, err)
	return []json.RawMessage{encoded}
}

func fundAndApproveWithAuth(t *testing.T, s *Server) {
	t.Helper()
	for _, call := range []struct {
		method string
		params interface{}
	}{
		{"token_mint", mintParams{Caller: testManager.Hex(), To: testStaker.Hex(), Amount: wholeTokens(2000)}},
		{"token_approve", approveParams{Owner: testStaker.Hex(), Amount: wholeTokens(2000)}},
	} {
		body, err := json.Marshal(RPCRequest{
			JSONRPC: jsonRPCVersion,
			Method:  call.method,
			Params:  mustParams(t, call.params),
			ID:      1,
		})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.authToken))
		recorder := httptest.NewRecorder()
		s.handle(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code)
	}
}
