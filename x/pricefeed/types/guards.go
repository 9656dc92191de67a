package types

import (
	"cosmossdk.io/math"
)

// BasisPointsDenominator is the number of basis points in a whole.
const BasisPointsDenominator = 10_000

// Guard is one acceptance check applied to a retrieved price record.
type Guard interface {
	Check(record PriceRecord) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(record PriceRecord) error

// Check calls f(record).
func (f GuardFunc) Check(record PriceRecord) error {
	return f(record)
}

// NonZeroGuard rejects a zero price print.
type NonZeroGuard struct{}

// Check implements Guard.
func (NonZeroGuard) Check(record PriceRecord) error {
	if record.Price == 0 {
		return ErrZeroPrice.Wrapf("feed %s published a zero price at %d", record.FeedID, record.PublishTime)
	}
	return nil
}

// ConfidenceRatioGuard rejects records whose confidence exceeds MaxBps basis
// points of the absolute price.
type ConfidenceRatioGuard struct {
	MaxBps uint64
}

// Check implements Guard.
func (g ConfidenceRatioGuard) Check(record PriceRecord) error {
	ratio, ok := ConfidenceRatioBps(record.Conf, record.Price)
	if !ok {
		return nil
	}
	if ratio.GT(math.NewIntFromUint64(g.MaxBps)) {
		return ErrWideConfidence.Wrapf("confidence ratio %s bps exceeds cap %d bps", ratio, g.MaxBps)
	}
	return nil
}

// ConfidenceRatioBps returns conf*10000/|price|, truncated toward zero.
// The product is formed in math.Int, so it cannot wrap for any uint64 conf.
// ok is false when price is zero.
func ConfidenceRatioBps(conf uint64, price int64) (ratio math.Int, ok bool) {
	absPrice := math.NewInt(price).Abs()
	if absPrice.IsZero() {
		return math.ZeroInt(), false
	}
	return math.NewIntFromUint64(conf).MulRaw(BasisPointsDenominator).Quo(absPrice), true
}

// PriceBoundsGuard rejects prices outside [Min, Max], compared on the raw
// mantissa. A zero bound is unset.
type PriceBoundsGuard struct {
	Min int64
	Max int64
}

// Check implements Guard.
func (g PriceBoundsGuard) Check(record PriceRecord) error {
	if g.Min != 0 && record.Price < g.Min {
		return ErrPriceOutOfBounds.Wrapf("price %d below minimum %d", record.Price, g.Min)
	}
	if g.Max != 0 && record.Price > g.Max {
		return ErrPriceOutOfBounds.Wrapf("price %d above maximum %d", record.Price, g.Max)
	}
	return nil
}

// ApplyGuards runs guards in order and returns the first failure.
func ApplyGuards(record PriceRecord, guards ...Guard) error {
	for _, g := range guards {
		if err := g.Check(record); err != nil {
			return err
		}
	}
	return nil
}
