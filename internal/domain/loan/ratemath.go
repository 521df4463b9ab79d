package loan

import "math"

// TenureNever is returned by TenureFor when the installment does not even
// cover one month's interest, so the balance can never amortize.
const TenureNever = -1

func monthlyRate(annualRatePct float64) float64 {
	return annualRatePct / 12 / 100
}

// Installment returns the fixed monthly payment that amortizes a
// reducing-balance loan over the given number of months.
func Installment(principal Money, annualRatePct float64, months int) Money {
	if principal <= 0 || months <= 0 {
		return 0
	}
	r := monthlyRate(annualRatePct)
	if r == 0 {
		return principal / float64(months)
	}
	pow := math.Pow(1+r, float64(months))
	return principal * r * pow / (pow - 1)
}

// tenureRoundingTolerance absorbs the few ULPs of float error the log-ratio
// carries when the installment amortizes in a whole number of months, so the
// ceiling does not round an exact inverse up by one.
const tenureRoundingTolerance = 1e-9

// TenureFor inverts Installment: the number of months needed to amortize
// the principal at the given installment, rounded up. Returns TenureNever
// when the installment cannot amortize the balance.
func TenureFor(principal Money, annualRatePct float64, installment Money) int {
	if principal <= 0 {
		return 0
	}
	if installment <= 0 {
		return TenureNever
	}
	r := monthlyRate(annualRatePct)
	if r == 0 {
		return int(math.Ceil(principal/installment - tenureRoundingTolerance))
	}
	x := principal * r / installment
	if x >= 1 {
		return TenureNever
	}
	v := -math.Log(1-x) / math.Log(1+r)
	return int(math.Ceil(v - tenureRoundingTolerance))
}
