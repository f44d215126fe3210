package staking

import (
	"math/big"
	"testing"
)

func TestDailyRateMatchesFormula(t *testing.T) {
	balances := []int64{0, 1, 100, 365, 1_000_000, 123_456_789}
	for _, b := range balances {
		balance := big.NewInt(b)
		rate, err := DailyRate(balance)
		if err != nil {
			t.Fatalf("daily rate for %d: %v", b, err)
		}
		annual := new(big.Int).Quo(new(big.Int).Mul(balance, big.NewInt(7)), big.NewInt(100))
		want := new(big.Int).Quo(new(big.Int).Add(balance, annual), big.NewInt(365))
		if rate.Cmp(want) != 0 {
			t.Fatalf("daily rate for %d: got %s want %s", b, rate, want)
		}
	}
}

func TestDailyRateWholeTokenScenario(t *testing.T) {
	// 1000 whole tokens at 12 decimals accrue floor(1070e12/365) per day.
	balance := new(big.Int).Mul(big.NewInt(1000), UnitScale)
	rate, err := DailyRate(balance)
	if err != nil {
		t.Fatalf("daily rate: %v", err)
	}
	want := new(big.Int).Quo(new(big.Int).Mul(big.NewInt(1070), UnitScale), big.NewInt(365))
	if rate.Cmp(want) != 0 {
		t.Fatalf("unexpected rate: got %s want %s", rate, want)
	}
}

func TestDailyRateMonotonic(t *testing.T) {
	prev := big.NewInt(-1)
	balance := big.NewInt(0)
	step := new(big.Int).Quo(UnitScale, big.NewInt(7))
	for i := 0; i < 1000; i++ {
		rate, err := DailyRate(balance)
		if err != nil {
			t.Fatalf("daily rate for %s: %v", balance, err)
		}
		if rate.Cmp(prev) < 0 {
			t.Fatalf("rate decreased at balance %s: %s < %s", balance, rate, prev)
		}
		prev = rate
		balance = new(big.Int).Add(balance, step)
	}
}

func TestDailyRateRejectsInvalidInputs(t *testing.T) {
	if _, err := DailyRate(nil); err != ErrInvalidAmount {
		t.Fatalf("nil balance: got %v want %v", err, ErrInvalidAmount)
	}
	if _, err := DailyRate(big.NewInt(-1)); err != ErrInvalidAmount {
		t.Fatalf("negative balance: got %v want %v", err, ErrInvalidAmount)
	}
}

func TestDailyRateOverflow(t *testing.T) {
	tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := DailyRate(tooWide); err != ErrArithmeticOverflow {
		t.Fatalf("wide balance: got %v want %v", err, ErrArithmeticOverflow)
	}
	// A balance that fits 256 bits but whose 107% blow-up does not.
	nearMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if _, err := DailyRate(nearMax); err != ErrArithmeticOverflow {
		t.Fatalf("near-max balance: got %v want %v", err, ErrArithmeticOverflow)
	}
}
