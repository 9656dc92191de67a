package types

const (
	// ModuleName defines the module name
	ModuleName = "pricefeed"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

var (
	// ModuleNamespace is the namespace byte for the pricefeed module (0x07)
	ModuleNamespace = byte(0x07)

	// PriceUpdateKeyPrefix is the prefix for posted price update accounts
	PriceUpdateKeyPrefix = []byte{0x07, 0x01}
)

// GetPriceUpdateKey returns the store key for the price update account of a feed
func GetPriceUpdateKey(feed FeedID) []byte {
	key := make([]byte, 0, len(PriceUpdateKeyPrefix)+FeedIDLength)
	key = append(key, PriceUpdateKeyPrefix...)
	return append(key, feed[:]...)
}
