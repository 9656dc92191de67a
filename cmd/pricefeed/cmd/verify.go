package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/paw-chain/pricefeed/x/pricefeed/keeper"
	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

const (
	flagAccount         = "account"
	flagState           = "state"
	flagPolicy          = "policy"
	flagNow             = "now"
	flagMaxAge          = "max-age"
	flagMaxConfBps      = "max-conf-bps"
	flagMinVerification = "min-verification"
)

// VerifyCmd decodes a hex price update account and genesis state into an
// in-memory keeper and verifies the policy's feed against it.
func VerifyCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a price update account against an acceptance policy",
		Long: `Verify reads a hex-encoded price update account from a file or stdin ("-"),
decodes it, and applies the acceptance policy. The policy comes from --policy
(or default_policy) in the --config file, or inline from --feed when given.
--state seeds the store from exported pricefeed genesis JSON first; the account
is then optional and, when given, must be newer than the seeded one.`,
		Example: `pricefeed verify --config policies.yaml --account update.hex --policy sol_usd
pricefeed encode ... | pricefeed verify --account - --feed 0xef0d...b56d --max-age 30
pricefeed verify --state genesis.json --policy eth_usd --config policies.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			policy, err := resolvePolicy(app, flags)
			if err != nil {
				return reportFailure(cmd, err)
			}

			now := time.Now().Unix()
			if flags.Changed(flagNow) {
				now, _ = flags.GetInt64(flagNow)
			}

			k, ctx, err := keeper.NewStandaloneKeeper(time.Unix(now, 0).UTC(), app.logger)
			if err != nil {
				return err
			}
			ctx = ctx.WithContext(cmd.Context())

			if statePath, _ := flags.GetString(flagState); statePath != "" {
				genState, err := readState(statePath)
				if err != nil {
					return reportFailure(cmd, err)
				}
				if err := k.InitGenesis(ctx, genState); err != nil {
					return reportFailure(cmd, err)
				}
			}

			if path, _ := flags.GetString(flagAccount); path != "" {
				bz, err := readAccount(cmd, path)
				if err != nil {
					return reportFailure(cmd, err)
				}
				update, err := types.DecodePriceUpdate(bz)
				if err != nil {
					return reportFailure(cmd, err)
				}
				if err := k.PostPriceUpdate(ctx, update); err != nil {
					return reportFailure(cmd, err)
				}
			}

			verified, err := k.VerifyPrice(ctx, policy)
			if err != nil {
				return reportFailure(cmd, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "feed_id: %s\n", verified.FeedID)
			fmt.Fprintf(out, "price: %s\n", verified.Price)
			fmt.Fprintf(out, "confidence: %s\n", verified.Confidence)
			fmt.Fprintf(out, "exponent: %d\n", verified.Exponent())
			fmt.Fprintf(out, "publish_time: %d (%s)\n", verified.PublishTime, time.Unix(verified.PublishTime, 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "age_seconds: %s\n", types.PriceAge(now, verified.PublishTime))
			return nil
		},
	}

	cmd.Flags().String(flagAccount, "", `file holding the hex account data, or "-" for stdin`)
	cmd.Flags().String(flagState, "", "pricefeed genesis JSON whose accounts seed the store")
	cmd.Flags().String(flagPolicy, "", "named policy from --config (defaults to default_policy)")
	cmd.Flags().Int64(flagNow, 0, "verification time in unix seconds (defaults to the current time)")
	cmd.Flags().String(flagFeed, "", "inline policy: expected feed id; overrides --policy")
	cmd.Flags().Uint64(flagMaxAge, types.DefaultMaxAgeSeconds, "inline policy: maximum age in seconds")
	cmd.Flags().Uint64(flagMaxConfBps, types.DefaultMaxConfidenceRatioBps, "inline policy: maximum confidence to price ratio in basis points")
	cmd.Flags().String(flagMinVerification, types.VerificationFull.String(), "inline policy: minimum verification level (full or partial:<n>)")

	cmd.MarkFlagsOneRequired(flagAccount, flagState)

	return cmd
}

// resolvePolicy prefers an inline policy when --feed is set and otherwise
// loads the named policy from --config.
func resolvePolicy(app *appContext, flags *pflag.FlagSet) (types.Policy, error) {
	if flags.Changed(flagFeed) {
		feedHex, _ := flags.GetString(flagFeed)
		maxAge, _ := flags.GetUint64(flagMaxAge)
		maxBps, _ := flags.GetUint64(flagMaxConfBps)
		levelStr, _ := flags.GetString(flagMinVerification)

		feed, err := types.ParseFeedID(feedHex)
		if err != nil {
			return types.Policy{}, err
		}
		level, err := types.ParseVerificationLevel(levelStr)
		if err != nil {
			return types.Policy{}, types.ErrInvalidPolicy.Wrap(err.Error())
		}
		return PolicyConfig{
			FeedID:                feed,
			MaxAgeSeconds:         maxAge,
			MaxConfidenceRatioBps: maxBps,
			MinVerification:       level,
		}.Policy()
	}

	cfg, err := LoadConfig(app.v, app.v.GetString(flagConfig))
	if err != nil {
		return types.Policy{}, err
	}
	name, _ := flags.GetString(flagPolicy)
	return cfg.Policy(name)
}

func readState(path string) (types.GenesisState, error) {
	var genState types.GenesisState
	bz, err := os.ReadFile(path)
	if err != nil {
		return genState, fmt.Errorf("failed to read state %s: %w", path, err)
	}
	if err := json.Unmarshal(bz, &genState); err != nil {
		return genState, types.ErrInvalidPriceUpdate.Wrapf("state %s is not pricefeed genesis JSON: %s", path, err)
	}
	return genState, nil
}

func readAccount(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account %s: %w", path, err)
	}

	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	bz, err := hex.DecodeString(text)
	if err != nil {
		return nil, types.ErrInvalidPriceUpdate.Wrapf("account data is not hex: %s", err)
	}
	return bz, nil
}
