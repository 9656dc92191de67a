package keeper

import (
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// StandaloneChainID is the chain id carried by standalone contexts.
const StandaloneChainID = "pricefeed-local"

// NewStandaloneKeeper mounts the pricefeed store on a fresh in-memory
// multistore and returns a keeper with a context at blockTime. It backs the
// command line verifier and the keeper test fixtures.
func NewStandaloneKeeper(blockTime time.Time, logger log.Logger) (*Keeper, sdk.Context, error) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, sdk.Context{}, err
	}

	header := cmtproto.Header{Time: blockTime, ChainID: StandaloneChainID}
	ctx := sdk.NewContext(stateStore, header, false, logger)

	return NewKeeper(storeKey), ctx, nil
}
