package keeper_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/pricefeed/testutil/keeper"
	"github.com/paw-chain/pricefeed/x/pricefeed/keeper"
	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

func logLines(buf *bytes.Buffer) []string {
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestVerifyPriceEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	k, ctx := keepertest.PricefeedKeeperWithLogger(t, log.NewLogger(&buf, log.OutputJSONOption()))
	now := ctx.BlockTime().Unix()

	update := priceUpdate(solUSDHex, now)
	require.NoError(t, k.PostPriceUpdate(ctx, update))
	buf.Reset()
	ctx = ctx.WithEventManager(sdk.NewEventManager())

	policy, err := types.NewPolicy(solUSDHex, 60, 200)
	require.NoError(t, err)

	got, err := k.VerifyPrice(ctx, policy)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(types.NewScaledValue(445713929913, -8)))
	require.True(t, got.Confidence.Equal(types.NewScaledValue(188943660, -8)))
	require.Equal(t, int32(-8), got.Exponent())
	require.Equal(t, now, got.PublishTime)
	require.Equal(t, "4457.13929913", got.Price.String())

	events := ctx.EventManager().Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventTypePriceVerified, events[0].Type)
	for key, want := range map[string]string{
		types.AttributeKeyFeedID:      solUSDHex,
		types.AttributeKeyPrice:       "445713929913",
		types.AttributeKeyConfidence:  "188943660",
		types.AttributeKeyExponent:    "-8",
		types.AttributeKeyPublishTime: "1700000000",
	} {
		attr, ok := events[0].GetAttribute(key)
		require.True(t, ok, key)
		require.Equal(t, want, attr.Value, key)
	}

	lines := logLines(&buf)
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "price verified", entry["message"])
	require.Equal(t, "x/pricefeed", entry["module"])
	require.Equal(t, solUSDHex, entry["feed_id"])
	require.EqualValues(t, 445713929913, entry["price"])
	require.EqualValues(t, 188943660, entry["confidence"])
	require.EqualValues(t, -8, entry["exponent"])
	require.EqualValues(t, now, entry["publish_time"])
}

func TestVerifyPriceFailureHasNoEffects(t *testing.T) {
	now := keepertest.DefaultBlockTime.Unix()

	tests := []struct {
		name    string
		update  func() types.PriceUpdate
		policy  func() types.Policy
		wantErr error
	}{
		{
			name:    "unknown feed",
			update:  func() types.PriceUpdate { return priceUpdate(solUSDHex, now) },
			policy:  func() types.Policy { return types.DefaultPolicy(types.MustParseFeedID(ethUSDHex)) },
			wantErr: types.ErrUnknownFeed,
		},
		{
			name:    "stale",
			update:  func() types.PriceUpdate { return priceUpdate(solUSDHex, now-61) },
			policy:  func() types.Policy { return types.DefaultPolicy(types.MustParseFeedID(solUSDHex)) },
			wantErr: types.ErrStalePrice,
		},
		{
			name: "zero price",
			update: func() types.PriceUpdate {
				u := priceUpdate(solUSDHex, now)
				u.Message.Price = 0
				return u
			},
			policy:  func() types.Policy { return types.DefaultPolicy(types.MustParseFeedID(solUSDHex)) },
			wantErr: types.ErrZeroPrice,
		},
		{
			name: "wide confidence",
			update: func() types.PriceUpdate {
				u := priceUpdate(solUSDHex, now)
				u.Message.Price = 5854321
				u.Message.Conf = 120000
				return u
			},
			policy:  func() types.Policy { return types.DefaultPolicy(types.MustParseFeedID(solUSDHex)) },
			wantErr: types.ErrWideConfidence,
		},
		{
			name: "partial verification",
			update: func() types.PriceUpdate {
				u := priceUpdate(solUSDHex, now)
				u.Verification = types.VerificationPartial(5)
				return u
			},
			policy:  func() types.Policy { return types.DefaultPolicy(types.MustParseFeedID(solUSDHex)) },
			wantErr: types.ErrInsufficientVerification,
		},
		{
			name:    "invalid policy",
			update:  func() types.PriceUpdate { return priceUpdate(solUSDHex, now) },
			policy:  func() types.Policy { return types.Policy{MaxAgeSeconds: 60} },
			wantErr: types.ErrInvalidPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			k, ctx := keepertest.PricefeedKeeperWithLogger(t, log.NewLogger(&buf, log.OutputJSONOption()))
			update := tt.update()
			require.NoError(t, k.PostPriceUpdate(ctx, update))
			before, err := k.GetAllPriceUpdates(ctx)
			require.NoError(t, err)

			buf.Reset()
			ctx = ctx.WithEventManager(sdk.NewEventManager())

			got, err := k.VerifyPrice(ctx, tt.policy())
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, types.VerifiedPrice{}, got)

			require.Empty(t, ctx.EventManager().Events())
			require.Empty(t, logLines(&buf))

			after, err := k.GetAllPriceUpdates(ctx)
			require.NoError(t, err)
			require.Equal(t, before, after)
		})
	}
}

func TestVerifyAndExtractExternalSource(t *testing.T) {
	k, ctx := keepertest.PricefeedKeeper(t)
	update := priceUpdate(solUSDHex, 1_000)
	policy := types.DefaultPolicy(update.Message.FeedID)

	// the keeper's own store is empty; the caller supplies the account
	got, err := k.VerifyAndExtract(ctx, update, policy, 1_060)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), got.PublishTime)

	_, err = k.VerifyAndExtract(ctx, update, policy, 1_061)
	require.ErrorIs(t, err, types.ErrStalePrice)

	_, err = k.VerifyPrice(ctx, policy)
	require.ErrorIs(t, err, types.ErrUnknownFeed)
}

func TestVerifyRecordsMetrics(t *testing.T) {
	k, ctx := keepertest.PricefeedKeeper(t)
	metrics := keeper.NewPricefeedMetrics()
	feed := solUSDHex

	accepted := metrics.Verifications.WithLabelValues(feed, "accepted")
	rejected := metrics.Verifications.WithLabelValues(feed, "rejected")
	stale := metrics.Rejections.WithLabelValues(feed, types.KindStalePrice.String())
	acceptedBefore := testutil.ToFloat64(accepted)
	rejectedBefore := testutil.ToFloat64(rejected)
	staleBefore := testutil.ToFloat64(stale)

	update := priceUpdate(solUSDHex, 1_000)
	policy := types.DefaultPolicy(update.Message.FeedID)

	_, err := k.VerifyAndExtract(ctx, update, policy, 1_030)
	require.NoError(t, err)
	_, err = k.VerifyAndExtract(ctx, update, policy, 2_000)
	require.Error(t, err)

	require.Equal(t, acceptedBefore+1, testutil.ToFloat64(accepted))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(rejected))
	require.Equal(t, staleBefore+1, testutil.ToFloat64(stale))
	require.Equal(t, float64(30), testutil.ToFloat64(metrics.PriceAge.WithLabelValues(feed)))
	// 188943660 * 10000 / 445713929913
	require.Equal(t, float64(4), testutil.ToFloat64(metrics.ConfidenceRatio.WithLabelValues(feed)))
}

func TestVerifyPriceCorruptStoredUpdate(t *testing.T) {
	var buf bytes.Buffer
	k, ctx := keepertest.PricefeedKeeperWithLogger(t, log.NewLogger(&buf, log.OutputJSONOption()))
	feed := types.MustParseFeedID(solUSDHex)

	valid := priceUpdate(solUSDHex, ctx.BlockTime().Unix()).Marshal()
	k.SetRawPriceUpdate(ctx, feed, valid[:len(valid)-3])

	_, found, err := k.LoadPriceUpdate(ctx, feed)
	require.ErrorIs(t, err, types.ErrInvalidPriceUpdate)
	require.False(t, found)

	policy, err := types.NewPolicy(solUSDHex, 60, 200)
	require.NoError(t, err)

	_, err = k.VerifyPrice(ctx, policy)
	require.ErrorIs(t, err, types.ErrInvalidPriceUpdate)
	require.NotErrorIs(t, err, types.ErrUnknownFeed)
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	require.Equal(t, types.KindInvalidPriceUpdate, kind)

	require.Empty(t, ctx.EventManager().Events())
	require.Empty(t, logLines(&buf))

	// a fresh post replaces the undecodable record
	require.NoError(t, k.PostPriceUpdate(ctx, priceUpdate(solUSDHex, ctx.BlockTime().Unix())))
	_, err = k.VerifyPrice(ctx, policy)
	require.NoError(t, err)
}
