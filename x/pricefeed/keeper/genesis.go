package keeper

import (
	"context"
	"fmt"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// InitGenesis stores every price update account in data
func (k Keeper) InitGenesis(ctx context.Context, data types.GenesisState) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid genesis state: %w", err)
	}

	updates, err := data.PriceUpdates()
	if err != nil {
		return err
	}
	for _, update := range updates {
		if err := k.PostPriceUpdate(ctx, update); err != nil {
			return fmt.Errorf("failed to set price update for %s: %w", update.Message.FeedID, err)
		}
	}

	return nil
}

// ExportGenesis exports every stored price update account in feed id order
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	updates, err := k.GetAllPriceUpdates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get price updates: %w", err)
	}
	return types.NewGenesisState(updates), nil
}
