package types

import (
	"cosmossdk.io/math"
)

// RecordSource is a read-only holder of receiver-verified price updates.
// Implementations return updates by value and must not expose internal state.
type RecordSource interface {
	LatestPriceUpdate(feed FeedID) (PriceUpdate, bool)
}

// CheckedRecordSource is a RecordSource whose reads can fail, such as one
// decoding stored bytes. A read error is returned to the caller instead of
// being reported as a missing feed.
type CheckedRecordSource interface {
	RecordSource
	LoadPriceUpdate(feed FeedID) (PriceUpdate, bool, error)
}

func loadPriceUpdate(src RecordSource, feed FeedID) (PriceUpdate, bool, error) {
	if checked, ok := src.(CheckedRecordSource); ok {
		return checked.LoadPriceUpdate(feed)
	}
	update, found := src.LatestPriceUpdate(feed)
	return update, found, nil
}

// PriceAge returns now - publishTime in seconds, clamped at zero for a
// publish time ahead of now. Computed without int64 wraparound.
func PriceAge(now, publishTime int64) math.Int {
	age := math.NewInt(now).Sub(math.NewInt(publishTime))
	if age.IsNegative() {
		return math.ZeroInt()
	}
	return age
}

// IsStale reports whether a record published at publishTime is older than
// maxAge at now. The boundary is inclusive: an age equal to maxAge is fresh.
func IsStale(now, publishTime int64, maxAge uint64) bool {
	return PriceAge(now, publishTime).GT(math.NewIntFromUint64(maxAge))
}

// GetPriceNoOlderThan returns the record for feed from src if it was fully
// verified and is no older than maxAge seconds at now.
func GetPriceNoOlderThan(src RecordSource, now int64, maxAge uint64, feed FeedID) (PriceRecord, error) {
	return GetPriceNoOlderThanWithLevel(src, now, maxAge, feed, VerificationFull)
}

// GetPriceNoOlderThanWithLevel is GetPriceNoOlderThan with a caller-chosen
// minimum verification level.
func GetPriceNoOlderThanWithLevel(src RecordSource, now int64, maxAge uint64, feed FeedID, minLevel VerificationLevel) (PriceRecord, error) {
	update, found, err := loadPriceUpdate(src, feed)
	if err != nil {
		return PriceRecord{}, err
	}
	if !found || !update.Message.FeedID.Equal(feed) {
		return PriceRecord{}, ErrUnknownFeed.Wrapf("no price update for feed %s", feed)
	}

	if !update.Verification.Gte(minLevel) {
		return PriceRecord{}, ErrInsufficientVerification.Wrapf("update verified at %s, policy requires %s", update.Verification, minLevel)
	}

	record := update.Message
	if IsStale(now, record.PublishTime, maxAge) {
		return PriceRecord{}, ErrStalePrice.Wrapf("age %s s exceeds max age %d s (publish_time=%d now=%d)",
			PriceAge(now, record.PublishTime), maxAge, record.PublishTime, now)
	}

	return record, nil
}
