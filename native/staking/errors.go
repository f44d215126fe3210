package staking

import "errors"

var (
	errNilState              = errors.New("staking engine: state not configured")
	errNilGateway            = errors.New("staking engine: token gateway not configured")
	ErrInvalidAmount         = errors.New("staking engine: amount must be positive")
	ErrInsufficientBalance   = errors.New("staking engine: insufficient balance")
	ErrInsufficientAllowance = errors.New("staking engine: insufficient allowance")
	ErrTransferFailed        = errors.New("staking engine: token transfer failed")
	ErrTooEarly              = errors.New("staking engine: no full day elapsed since last settlement")
	ErrNothingStaked         = errors.New("staking engine: no locked balance")
	ErrArithmeticOverflow    = errors.New("staking engine: arithmetic overflow")
	ErrOperationInProgress   = errors.New("staking engine: operation already in progress for account")
)
