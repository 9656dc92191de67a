package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/pricefeed/x/pricefeed/keeper"
)

// DefaultBlockTime is the header time of contexts built by PricefeedKeeper.
var DefaultBlockTime = time.Unix(1_700_000_000, 0).UTC()

// PricefeedKeeper returns a keeper backed by an in-memory multistore and a
// context whose block time is DefaultBlockTime.
func PricefeedKeeper(t testing.TB) (*keeper.Keeper, sdk.Context) {
	t.Helper()
	return PricefeedKeeperWithLogger(t, log.NewNopLogger())
}

// PricefeedKeeperWithLogger is PricefeedKeeper with a caller-supplied logger,
// for tests that assert on log output.
func PricefeedKeeperWithLogger(t testing.TB, logger log.Logger) (*keeper.Keeper, sdk.Context) {
	t.Helper()

	k, ctx, err := keeper.NewStandaloneKeeper(DefaultBlockTime, logger)
	require.NoError(t, err)
	return k, ctx
}
