package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type stakeParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type accountParams struct {
	Account string `json:"account"`
}

type withdrawParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type accountResult struct {
	LockedBalance string `json:"lockedBalance"`
	DailyRate     string `json:"dailyRate"`
	LastRedeemed  int64  `json:"lastRedeemed"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

type autoStackResult struct {
	Compounded    string `json:"compounded"`
	LockedBalance string `json:"lockedBalance"`
	DailyRate     string `json:"dailyRate"`
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("%s is required", field)
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid %s address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleStake(w http.ResponseWriter, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.engine.Stake(account, amount)
	s.metrics.ObserveOperation("stake", err)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, accountResult{
		LockedBalance: record.LockedBalance.String(),
		DailyRate:     record.DailyRate.String(),
		LastRedeemed:  record.LastRedeemedUnix,
	})
}

func (s *Server) handleRedeem(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.engine.Redeem(account)
	s.metrics.ObserveOperation("redeem", err)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleAutoStack(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	compounded, record, err := s.engine.AutoStack(account)
	s.metrics.ObserveOperation("autoStack", err)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, autoStackResult{
		Compounded:    compounded.String(),
		LockedBalance: record.LockedBalance.String(),
		DailyRate:     record.DailyRate.String(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, err := s.engine.WithdrawPartial(account, amount)
	s.metrics.ObserveOperation("withdraw", err)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, accountResult{
		LockedBalance: record.LockedBalance.String(),
		DailyRate:     record.DailyRate.String(),
		LastRedeemed:  record.LastRedeemedUnix,
	})
}

func (s *Server) handleGetRedeemable(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.engine.Redeemable(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.engine.LockedBalance(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	dailyRate, err := s.engine.AccountDailyRate(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	lastRedeemed, err := s.engine.LastRedeemed(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, accountResult{
		LockedBalance: balance.String(),
		DailyRate:     dailyRate.String(),
		LastRedeemed:  lastRedeemed,
	})
}

func (s *Server) handleGetLockedBalance(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.engine.LockedBalance(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: balance.String()})
}

func (s *Server) handleGetDailyRate(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	dailyRate, err := s.engine.AccountDailyRate(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: dailyRate.String()})
}

func (s *Server) handleGetLastRedeemed(w http.ResponseWriter, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	lastRedeemed, err := s.engine.LastRedeemed(account)
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, map[string]int64{"lastRedeemed": lastRedeemed})
}

func (s *Server) handleGetReserve(w http.ResponseWriter, req *RPCRequest) {
	reserve, err := s.engine.ProgramReserve()
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	value, _ := new(big.Float).SetInt(reserve).Float64()
	s.metrics.SetReserve(value)
	writeResult(w, req.ID, amountResult{Amount: reserve.String()})
}

func (s *Server) handleGetStartDate(w http.ResponseWriter, req *RPCRequest) {
	start, err := s.engine.StartDate()
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, map[string]int64{"startDate": start})
}

func (s *Server) handleGetDaysSinceStart(w http.ResponseWriter, req *RPCRequest) {
	days, err := s.engine.DaysSinceStart()
	if err != nil {
		code, message := errorToRPC(err)
		writeError(w, http.StatusOK, req.ID, code, message, nil)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"days": days})
}
