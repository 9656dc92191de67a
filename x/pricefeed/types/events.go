package types

// Event types for the pricefeed module
const (
	EventTypePriceVerified     = "pricefeed_price_verified"
	EventTypePriceUpdatePosted = "pricefeed_price_update_posted"
)

// Event attribute keys for the pricefeed module
const (
	AttributeKeyFeedID       = "feed_id"
	AttributeKeyPrice        = "price"
	AttributeKeyConfidence   = "confidence"
	AttributeKeyExponent     = "exponent"
	AttributeKeyPublishTime  = "publish_time"
	AttributeKeyPostedSlot   = "posted_slot"
	AttributeKeyVerification = "verification_level"
)
