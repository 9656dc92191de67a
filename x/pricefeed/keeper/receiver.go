package keeper

import (
	"context"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// PostPriceUpdate stores a receiver-verified price update as the latest
// account for its feed. Publish times must strictly increase per feed.
func (k Keeper) PostPriceUpdate(ctx context.Context, update types.PriceUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	feed := update.Message.FeedID
	existing, found, err := k.LoadPriceUpdate(ctx, feed)
	if err != nil {
		// an undecodable record cannot be compared, the new update replaces it
		k.Logger(sdk.UnwrapSDKContext(ctx)).Error("replacing undecodable price update", "feed_id", feed.String(), "error", err)
	} else if found {
		if update.Message.PublishTime <= existing.Message.PublishTime {
			return types.ErrUpdateNotNewer.Wrapf("feed %s: publish_time %d <= stored %d",
				feed, update.Message.PublishTime, existing.Message.PublishTime)
		}
	}

	store := k.getStore(ctx)
	store.Set(types.GetPriceUpdateKey(feed), update.Marshal())

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePriceUpdatePosted,
			sdk.NewAttribute(types.AttributeKeyFeedID, feed.String()),
			sdk.NewAttribute(types.AttributeKeyPublishTime, fmt.Sprintf("%d", update.Message.PublishTime)),
			sdk.NewAttribute(types.AttributeKeyPostedSlot, fmt.Sprintf("%d", update.PostedSlot)),
			sdk.NewAttribute(types.AttributeKeyVerification, update.Verification.String()),
		),
	)

	if k.metrics != nil {
		k.metrics.UpdatesPosted.With(map[string]string{"feed": feed.String()}).Inc()
	}

	return nil
}

// LoadPriceUpdate returns the latest posted update for a feed. Stored bytes
// go through the same checked decode as externally supplied accounts, and a
// decode failure is returned as ErrInvalidPriceUpdate.
func (k Keeper) LoadPriceUpdate(ctx context.Context, feed types.FeedID) (types.PriceUpdate, bool, error) {
	store := k.getStore(ctx)
	bz := store.Get(types.GetPriceUpdateKey(feed))
	if bz == nil {
		return types.PriceUpdate{}, false, nil
	}

	update, err := types.DecodePriceUpdate(bz)
	if err != nil {
		return types.PriceUpdate{}, false, types.ErrInvalidPriceUpdate.Wrapf("stored update for feed %s: %s", feed, err)
	}
	return update, true, nil
}

// GetPriceUpdate is LoadPriceUpdate for callers that only care whether a
// usable update exists.
func (k Keeper) GetPriceUpdate(ctx context.Context, feed types.FeedID) (types.PriceUpdate, bool) {
	update, found, err := k.LoadPriceUpdate(ctx, feed)
	if err != nil {
		return types.PriceUpdate{}, false
	}
	return update, found
}

// DeletePriceUpdate removes the stored update for a feed
func (k Keeper) DeletePriceUpdate(ctx context.Context, feed types.FeedID) {
	store := k.getStore(ctx)
	store.Delete(types.GetPriceUpdateKey(feed))
}

// IteratePriceUpdates iterates over all stored price updates in feed id order
func (k Keeper) IteratePriceUpdates(ctx context.Context, cb func(update types.PriceUpdate) (stop bool)) error {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, types.PriceUpdateKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		update, err := types.DecodePriceUpdate(iterator.Value())
		if err != nil {
			return err
		}
		if cb(update) {
			break
		}
	}
	return nil
}

// GetAllPriceUpdates returns every stored price update
func (k Keeper) GetAllPriceUpdates(ctx context.Context) ([]types.PriceUpdate, error) {
	updates := make([]types.PriceUpdate, 0, 16)
	err := k.IteratePriceUpdates(ctx, func(update types.PriceUpdate) bool {
		updates = append(updates, update)
		return false
	})
	return updates, err
}

// RecordSource returns a read-only view of the store bound to ctx. The view
// is a CheckedRecordSource, so a corrupt stored record surfaces as
// ErrInvalidPriceUpdate rather than ErrUnknownFeed.
func (k Keeper) RecordSource(ctx context.Context) types.RecordSource {
	return storeRecordSource{k: k, ctx: ctx}
}

type storeRecordSource struct {
	k   Keeper
	ctx context.Context
}

func (s storeRecordSource) LatestPriceUpdate(feed types.FeedID) (types.PriceUpdate, bool) {
	return s.k.GetPriceUpdate(s.ctx, feed)
}

func (s storeRecordSource) LoadPriceUpdate(feed types.FeedID) (types.PriceUpdate, bool, error) {
	return s.k.LoadPriceUpdate(s.ctx, feed)
}
