package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// Keeper holds posted price update accounts and verifies them against
// acceptance policies.
type Keeper struct {
	storeKey storetypes.StoreKey
	metrics  *PricefeedMetrics
}

// NewKeeper creates a new pricefeed Keeper instance
func NewKeeper(key storetypes.StoreKey) *Keeper {
	return &Keeper{
		storeKey: key,
		metrics:  NewPricefeedMetrics(),
	}
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// getStore returns the KVStore for the pricefeed module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.KVStore(k.storeKey)
}
