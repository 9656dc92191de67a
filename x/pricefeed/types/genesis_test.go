package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

func TestGenesisStateValidate(t *testing.T) {
	sol := samplePriceUpdate()
	eth := samplePriceUpdate()
	eth.Message.FeedID = types.MustParseFeedID("0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace")
	eth.Verification = types.VerificationPartial(3)

	valid := types.NewGenesisState([]types.PriceUpdate{sol, eth})
	require.NoError(t, valid.Validate())

	updates, err := valid.PriceUpdates()
	require.NoError(t, err)
	require.Equal(t, []types.PriceUpdate{sol, eth}, updates)

	prefixed := types.GenesisState{Accounts: []string{"0x" + valid.Accounts[0]}}
	require.NoError(t, prefixed.Validate())

	require.NoError(t, types.DefaultGenesis().Validate())

	tests := []struct {
		name     string
		accounts []string
	}{
		{"not hex", []string{"zz"}},
		{"truncated", []string{valid.Accounts[0][:40]}},
		{"duplicate feed", []string{valid.Accounts[0], valid.Accounts[0]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.GenesisState{Accounts: tt.accounts}.Validate()
			require.ErrorIs(t, err, types.ErrInvalidPriceUpdate)
		})
	}
}
