package types

import (
	"fmt"
	"strconv"
	"strings"
)

// PriceRecord is one attested snapshot of a feed. Price and Conf share Exponent,
// so their ratio is exponent-free.
type PriceRecord struct {
	FeedID          FeedID
	Price           int64
	Conf            uint64
	Exponent        int32
	PublishTime     int64
	PrevPublishTime int64
	EMAPrice        int64
	EMAConf         uint64
}

// PriceValue returns the price as a scaled value.
func (r PriceRecord) PriceValue() ScaledValue {
	return NewScaledValue(r.Price, r.Exponent)
}

// ConfValue returns the confidence as a scaled value.
func (r PriceRecord) ConfValue() ScaledValue {
	return NewScaledValueFromUint64(r.Conf, r.Exponent)
}

// EMAPriceValue returns the exponential moving average price as a scaled value.
func (r PriceRecord) EMAPriceValue() ScaledValue {
	return NewScaledValue(r.EMAPrice, r.Exponent)
}

// Validate checks structural invariants. It does not apply acceptance guards.
func (r PriceRecord) Validate() error {
	if r.FeedID.IsZero() {
		return fmt.Errorf("feed id cannot be zero")
	}
	if r.PublishTime <= 0 {
		return fmt.Errorf("publish time must be positive")
	}
	if r.PrevPublishTime > r.PublishTime {
		return fmt.Errorf("previous publish time %d is after publish time %d", r.PrevPublishTime, r.PublishTime)
	}
	if r.Exponent > MaxAbsExponent || r.Exponent < -MaxAbsExponent {
		return fmt.Errorf("exponent %d out of range [-%d, %d]", r.Exponent, MaxAbsExponent, MaxAbsExponent)
	}
	return nil
}

// VerificationLevel records how many guardian signatures the receiver checked
// before writing an update. Full outranks every partial level.
type VerificationLevel struct {
	Full          bool
	NumSignatures uint8
}

// VerificationFull is the level of an update checked against the full guardian quorum.
var VerificationFull = VerificationLevel{Full: true}

// VerificationPartial returns a partial level with n checked signatures.
func VerificationPartial(n uint8) VerificationLevel {
	return VerificationLevel{NumSignatures: n}
}

// Gte reports whether l is at least as strong as other.
func (l VerificationLevel) Gte(other VerificationLevel) bool {
	switch {
	case l.Full:
		return true
	case other.Full:
		return false
	default:
		return l.NumSignatures >= other.NumSignatures
	}
}

// String returns "full" or "partial:<n>".
func (l VerificationLevel) String() string {
	if l.Full {
		return "full"
	}
	return fmt.Sprintf("partial:%d", l.NumSignatures)
}

// ParseVerificationLevel parses the String form.
func ParseVerificationLevel(s string) (VerificationLevel, error) {
	if s == "" || s == "full" {
		return VerificationFull, nil
	}
	rest, ok := strings.CutPrefix(s, "partial:")
	if !ok {
		return VerificationLevel{}, fmt.Errorf("invalid verification level %q: expected full or partial:<n>", s)
	}
	n, err := strconv.ParseUint(rest, 10, 8)
	if err != nil {
		return VerificationLevel{}, fmt.Errorf("invalid signature count in %q: %w", s, err)
	}
	return VerificationPartial(uint8(n)), nil
}
