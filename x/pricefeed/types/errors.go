package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Pricefeed module sentinel errors
var (
	// Acceptance errors returned by the verification entry point
	ErrMalformedFeedID = sdkerrors.Register(ModuleName, 2, "malformed feed id")
	ErrUnknownFeed     = sdkerrors.Register(ModuleName, 3, "unknown feed")
	ErrStalePrice      = sdkerrors.Register(ModuleName, 4, "price is stale")
	ErrZeroPrice       = sdkerrors.Register(ModuleName, 5, "price is zero")
	ErrWideConfidence  = sdkerrors.Register(ModuleName, 6, "confidence interval too wide")

	ErrInsufficientVerification = sdkerrors.Register(ModuleName, 7, "insufficient verification level")
	ErrInvalidPolicy            = sdkerrors.Register(ModuleName, 8, "invalid acceptance policy")

	// Receiver errors
	ErrInvalidPriceUpdate = sdkerrors.Register(ModuleName, 9, "invalid price update account")
	ErrUpdateNotNewer     = sdkerrors.Register(ModuleName, 10, "price update is not newer than stored update")

	// Extension guard errors
	ErrPriceOutOfBounds = sdkerrors.Register(ModuleName, 11, "price outside configured bounds")
)

// ErrorKind is the closed set of rejection categories a caller can branch on.
// The numeric value is the registered ABCI code of the matching sentinel.
type ErrorKind uint32

const (
	KindMalformedFeedID          ErrorKind = 2
	KindUnknownFeed              ErrorKind = 3
	KindStalePrice               ErrorKind = 4
	KindZeroPrice                ErrorKind = 5
	KindWideConfidence           ErrorKind = 6
	KindInsufficientVerification ErrorKind = 7
	KindInvalidPolicy            ErrorKind = 8
	KindInvalidPriceUpdate       ErrorKind = 9
	KindUpdateNotNewer           ErrorKind = 10
	KindPriceOutOfBounds         ErrorKind = 11
)

var kindErrors = map[ErrorKind]*sdkerrors.Error{
	KindMalformedFeedID:          ErrMalformedFeedID,
	KindUnknownFeed:              ErrUnknownFeed,
	KindStalePrice:               ErrStalePrice,
	KindZeroPrice:                ErrZeroPrice,
	KindWideConfidence:           ErrWideConfidence,
	KindInsufficientVerification: ErrInsufficientVerification,
	KindInvalidPolicy:            ErrInvalidPolicy,
	KindInvalidPriceUpdate:       ErrInvalidPriceUpdate,
	KindUpdateNotNewer:           ErrUpdateNotNewer,
	KindPriceOutOfBounds:         ErrPriceOutOfBounds,
}

var kindNames = map[ErrorKind]string{
	KindMalformedFeedID:          "MalformedFeedId",
	KindUnknownFeed:              "UnknownFeed",
	KindStalePrice:               "StalePrice",
	KindZeroPrice:                "ZeroPrice",
	KindWideConfidence:           "WideConfidence",
	KindInsufficientVerification: "InsufficientVerification",
	KindInvalidPolicy:            "InvalidPolicy",
	KindInvalidPriceUpdate:       "InvalidPriceUpdate",
	KindUpdateNotNewer:           "UpdateNotNewer",
	KindPriceOutOfBounds:         "PriceOutOfBounds",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Err returns the sentinel error registered for the kind, or nil.
func (k ErrorKind) Err() error {
	if err, ok := kindErrors[k]; ok {
		return err
	}
	return nil
}

// KindOf maps an error, however deeply wrapped, back to its ErrorKind.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	for kind, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return 0, false
}

// RecoverySuggestions provides operator-facing remediation text for each error
var RecoverySuggestions = map[error]string{
	ErrMalformedFeedID: "Feed id must be 32 bytes of hex (64 characters), optionally prefixed with 0x. Check the configured feed id for typos or truncation.",
	ErrUnknownFeed:     "No posted update exists for the expected feed. Post a fresh signed update for this feed id, or check that the policy targets the right feed.",
	ErrStalePrice:      "The posted update is older than the policy's max age. Fetch and post a newer signed update, then retry.",
	ErrZeroPrice:       "The update carries a zero price, which usually means a degraded or default record. Wait for the next publish and post it.",
	ErrWideConfidence:  "The confidence interval is wider than the policy allows. Markets may be volatile; retry with a newer update or review the basis-point cap.",

	ErrInsufficientVerification: "The update was only partially verified. Post a fully verified update or lower the policy's minimum verification level.",
	ErrInvalidPolicy:            "Acceptance policy failed validation. Check the feed id and thresholds in the configuration.",
	ErrInvalidPriceUpdate:       "Account data is not a valid price update. Check the account discriminator and encoding.",
	ErrUpdateNotNewer:           "A newer or equal update for this feed is already stored. Nothing to do.",
	ErrPriceOutOfBounds:         "Price fell outside the configured absolute bounds. Verify the feed and the bounds configuration.",
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	if kind, ok := KindOf(err); ok {
		if suggestion, ok := RecoverySuggestions[kind.Err()]; ok {
			return suggestion
		}
	}

	return "No recovery suggestion available. Check error message for details."
}
