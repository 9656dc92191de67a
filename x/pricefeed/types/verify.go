package types

// VerifiedPrice is an accepted price: raw mantissas sharing one exponent.
type VerifiedPrice struct {
	FeedID      FeedID
	Price       ScaledValue
	Confidence  ScaledValue
	PublishTime int64
}

// NewVerifiedPrice copies the accepted fields out of record.
func NewVerifiedPrice(record PriceRecord) VerifiedPrice {
	return VerifiedPrice{
		FeedID:      record.FeedID,
		Price:       record.PriceValue(),
		Confidence:  record.ConfValue(),
		PublishTime: record.PublishTime,
	}
}

// Exponent returns the exponent shared by price and confidence.
func (v VerifiedPrice) Exponent() int32 {
	return v.Price.Exponent
}

// Verify retrieves the policy's feed from src and runs the acceptance guards.
// It has no side effects.
func Verify(src RecordSource, policy Policy, now int64) (VerifiedPrice, error) {
	if err := policy.Validate(); err != nil {
		return VerifiedPrice{}, err
	}

	record, err := GetPriceNoOlderThanWithLevel(src, now, policy.MaxAgeSeconds, policy.ExpectedFeed, policy.MinVerification)
	if err != nil {
		return VerifiedPrice{}, err
	}

	if err := ApplyGuards(record, policy.AcceptanceGuards()...); err != nil {
		return VerifiedPrice{}, err
	}

	return NewVerifiedPrice(record), nil
}
