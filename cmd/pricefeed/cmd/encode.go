package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

const (
	flagFeed            = "feed"
	flagPrice           = "price"
	flagConf            = "conf"
	flagExpo            = "expo"
	flagPublishTime     = "publish-time"
	flagPrevPublishTime = "prev-publish-time"
	flagEMAPrice        = "ema-price"
	flagEMAConf         = "ema-conf"
	flagSlot            = "slot"
	flagPartial         = "partial"
)

// EncodeCmd builds a price update account from flags and prints it as hex.
// It is meant for tests and local networks; real accounts come from the
// receiver program.
func EncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encode",
		Short:   "Encode a price update account as hex",
		Example: `pricefeed encode --feed 0xef0d...b56d --price 445713929913 --conf 188943660 --expo -8 --publish-time 1700000000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			feedHex, _ := flags.GetString(flagFeed)
			feed, err := types.ParseFeedID(feedHex)
			if err != nil {
				return reportFailure(cmd, err)
			}

			price, _ := flags.GetInt64(flagPrice)
			conf, _ := flags.GetUint64(flagConf)
			expo, _ := flags.GetInt32(flagExpo)
			publishTime, _ := flags.GetInt64(flagPublishTime)
			prevPublishTime, _ := flags.GetInt64(flagPrevPublishTime)
			emaPrice, _ := flags.GetInt64(flagEMAPrice)
			emaConf, _ := flags.GetUint64(flagEMAConf)
			slot, _ := flags.GetUint64(flagSlot)

			if !flags.Changed(flagPrevPublishTime) {
				prevPublishTime = publishTime
			}
			if !flags.Changed(flagEMAPrice) {
				emaPrice = price
			}
			if !flags.Changed(flagEMAConf) {
				emaConf = conf
			}

			verification := types.VerificationFull
			if flags.Changed(flagPartial) {
				n, _ := flags.GetUint8(flagPartial)
				verification = types.VerificationPartial(n)
			}

			update := types.PriceUpdate{
				Verification: verification,
				Message: types.PriceRecord{
					FeedID:          feed,
					Price:           price,
					Conf:            conf,
					Exponent:        expo,
					PublishTime:     publishTime,
					PrevPublishTime: prevPublishTime,
					EMAPrice:        emaPrice,
					EMAConf:         emaConf,
				},
				PostedSlot: slot,
			}
			if err := update.Validate(); err != nil {
				return reportFailure(cmd, err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(update.Marshal()))
			return err
		},
	}

	cmd.Flags().String(flagFeed, "", "32-byte feed id in hex")
	cmd.Flags().Int64(flagPrice, 0, "price mantissa")
	cmd.Flags().Uint64(flagConf, 0, "confidence mantissa")
	cmd.Flags().Int32(flagExpo, 0, "decimal exponent shared by price and confidence")
	cmd.Flags().Int64(flagPublishTime, 0, "publish time in unix seconds")
	cmd.Flags().Int64(flagPrevPublishTime, 0, "previous publish time (defaults to --publish-time)")
	cmd.Flags().Int64(flagEMAPrice, 0, "EMA price mantissa (defaults to --price)")
	cmd.Flags().Uint64(flagEMAConf, 0, "EMA confidence mantissa (defaults to --conf)")
	cmd.Flags().Uint64(flagSlot, 0, "slot at which the account was posted")
	cmd.Flags().Uint8(flagPartial, 0, "mark the update partially verified with N signatures")

	_ = cmd.MarkFlagRequired(flagFeed)
	_ = cmd.MarkFlagRequired(flagPublishTime)

	return cmd
}
