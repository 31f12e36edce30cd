package ledger

import (
	"math/big"

	"loanledger/internal/domain/loan"
)

// interestScale is the fixed-point scale used by the scaled variant, enough
// headroom to express sub-unit interest on small balances.
var interestScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var bpsDenominator = big.NewInt(loan.BasisPointsDenominator)

// ProratedInterestScaled computes interest owed on the outstanding balance
// for the window [lastAccrual, now], as a 1e18 fixed-point value:
//
//	balance * rateBps * (now - lastAccrual) * 1e18 / (10_000 * durationSecs)
//
// Interest is simple and non-compounding: every payment resets lastAccrual,
// so each window is charged against the balance current at its start. The
// product goes through big.Int so large balances cannot overflow int64
// mid-computation.
func ProratedInterestScaled(balance, rateBps, durationSecs, lastAccrual, now int64) (*big.Int, error) {
	if durationSecs <= 0 || now < lastAccrual {
		return nil, loan.ErrInvalidState
	}
	elapsed := now - lastAccrual

	num := new(big.Int).Mul(big.NewInt(balance), big.NewInt(rateBps))
	num.Mul(num, big.NewInt(elapsed))
	num.Mul(num, interestScale)

	den := new(big.Int).Mul(bpsDenominator, big.NewInt(durationSecs))
	return num.Quo(num, den), nil
}

// ProratedInterest is the whole-unit amount actually charged: the scaled
// value floored to minor units.
func ProratedInterest(balance, rateBps, durationSecs, lastAccrual, now int64) (int64, error) {
	scaled, err := ProratedInterestScaled(balance, rateBps, durationSecs, lastAccrual, now)
	if err != nil {
		return 0, err
	}
	return new(big.Int).Quo(scaled, interestScale).Int64(), nil
}

// feeAmount applies a basis-point rate to a single disbursement leg,
// rounding down.
func feeAmount(leg, rateBps int64) int64 {
	if leg <= 0 || rateBps <= 0 {
		return 0
	}
	f := new(big.Int).Mul(big.NewInt(leg), big.NewInt(rateBps))
	return f.Quo(f, bpsDenominator).Int64()
}
