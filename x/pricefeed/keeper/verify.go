package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/paw-chain/pricefeed/telemetry"
	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// VerifyAndExtract reads the policy's feed from src and applies the
// acceptance guards at time now. On success it logs and emits exactly one
// price-verified record; on failure nothing is logged or emitted and the
// categorized error is returned unchanged.
func (k Keeper) VerifyAndExtract(ctx sdk.Context, src types.RecordSource, policy types.Policy, now int64) (types.VerifiedPrice, error) {
	spanCtx, span := telemetry.StartModuleSpan(ctx.Context(), types.ModuleName, "verify")
	defer span.End()
	ctx = ctx.WithContext(spanCtx)

	feed := policy.ExpectedFeed.String()
	telemetry.AddSpanAttributes(span, attribute.String("pricefeed.feed_id", feed), attribute.Int64("pricefeed.now", now))

	verified, err := types.Verify(src, policy, now)
	if err != nil {
		telemetry.RecordError(span, err)
		k.recordRejection(feed, err)
		return types.VerifiedPrice{}, err
	}

	price := verified.Price.Mantissa.Int64()
	conf := verified.Confidence.Mantissa.Uint64()

	k.Logger(ctx).Info("price verified",
		"feed_id", feed,
		"price", price,
		"confidence", conf,
		"exponent", verified.Exponent(),
		"publish_time", verified.PublishTime,
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePriceVerified,
			sdk.NewAttribute(types.AttributeKeyFeedID, feed),
			sdk.NewAttribute(types.AttributeKeyPrice, verified.Price.Mantissa.String()),
			sdk.NewAttribute(types.AttributeKeyConfidence, verified.Confidence.Mantissa.String()),
			sdk.NewAttribute(types.AttributeKeyExponent, fmt.Sprintf("%d", verified.Exponent())),
			sdk.NewAttribute(types.AttributeKeyPublishTime, fmt.Sprintf("%d", verified.PublishTime)),
		),
	)

	k.recordAcceptance(feed, now, price, conf, verified.PublishTime)
	telemetry.SetSpanStatus(span, true, "accepted")

	return verified, nil
}

// VerifyPrice verifies the policy's feed against this keeper's own store at
// the block time carried by ctx.
func (k Keeper) VerifyPrice(ctx sdk.Context, policy types.Policy) (types.VerifiedPrice, error) {
	return k.VerifyAndExtract(ctx, k.RecordSource(ctx), policy, ctx.BlockTime().Unix())
}

func (k Keeper) recordRejection(feed string, err error) {
	if k.metrics == nil {
		return
	}
	reason := "unknown"
	if kind, ok := types.KindOf(err); ok {
		reason = kind.String()
	}
	k.metrics.Verifications.With(map[string]string{"feed": feed, "result": resultRejected}).Inc()
	k.metrics.Rejections.With(map[string]string{"feed": feed, "reason": reason}).Inc()
}

// recordAcceptance runs after the decision; gauge floats never feed back into it.
func (k Keeper) recordAcceptance(feed string, now, price int64, conf uint64, publishTime int64) {
	if k.metrics == nil {
		return
	}
	k.metrics.Verifications.With(map[string]string{"feed": feed, "result": resultAccepted}).Inc()

	age := types.PriceAge(now, publishTime)
	if age.IsInt64() {
		k.metrics.PriceAge.With(map[string]string{"feed": feed}).Set(float64(age.Int64()))
	}
	if ratio, ok := types.ConfidenceRatioBps(conf, price); ok && ratio.IsInt64() {
		k.metrics.ConfidenceRatio.With(map[string]string{"feed": feed}).Set(float64(ratio.Int64()))
	}
}
