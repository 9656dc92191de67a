package types

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// FeedIDLength is the byte length of a feed identifier.
const FeedIDLength = 32

// FeedID names a single asset's price stream.
type FeedID [FeedIDLength]byte

// ParseFeedID decodes a 32-byte hex feed id. A leading 0x is optional and
// letter case is ignored.
func ParseFeedID(s string) (FeedID, error) {
	var id FeedID

	raw := s
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
	}
	if raw == "" {
		return id, ErrMalformedFeedID.Wrap("feed id is empty")
	}
	if len(raw) != hex.EncodedLen(FeedIDLength) {
		return id, ErrMalformedFeedID.Wrapf("expected %d hex characters, got %d", hex.EncodedLen(FeedIDLength), len(raw))
	}

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return id, ErrMalformedFeedID.Wrap(err.Error())
	}

	copy(id[:], decoded)
	return id, nil
}

// MustParseFeedID is ParseFeedID for compile-time constants. It panics on error.
func MustParseFeedID(s string) FeedID {
	id, err := ParseFeedID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the lower-case hex form with a 0x prefix.
func (f FeedID) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

// Equal reports whether two feed ids are byte-for-byte identical.
func (f FeedID) Equal(other FeedID) bool {
	return bytes.Equal(f[:], other[:])
}

// IsZero reports whether the feed id is all zero bytes.
func (f FeedID) IsZero() bool {
	return f == FeedID{}
}

// MarshalText implements encoding.TextMarshaler.
func (f FeedID) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FeedID) UnmarshalText(text []byte) error {
	id, err := ParseFeedID(string(text))
	if err != nil {
		return err
	}
	*f = id
	return nil
}
