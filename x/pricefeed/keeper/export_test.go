package keeper

import (
	"context"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// SetRawPriceUpdate writes bz under the feed's key without decoding it.
func (k Keeper) SetRawPriceUpdate(ctx context.Context, feed types.FeedID, bz []byte) {
	k.getStore(ctx).Set(types.GetPriceUpdateKey(feed), bz)
}
