package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GenesisState carries every stored price update account, hex-encoded in
// account layout so exported state decodes through DecodePriceUpdate.
type GenesisState struct {
	Accounts []string `json:"accounts"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{Accounts: []string{}}
}

// NewGenesisState encodes updates as genesis accounts.
func NewGenesisState(updates []PriceUpdate) *GenesisState {
	gs := &GenesisState{Accounts: make([]string, 0, len(updates))}
	for _, u := range updates {
		gs.Accounts = append(gs.Accounts, hex.EncodeToString(u.Marshal()))
	}
	return gs
}

// PriceUpdates decodes every account in order.
func (gs GenesisState) PriceUpdates() ([]PriceUpdate, error) {
	updates := make([]PriceUpdate, 0, len(gs.Accounts))
	for i, account := range gs.Accounts {
		bz, err := hex.DecodeString(strings.TrimPrefix(account, "0x"))
		if err != nil {
			return nil, ErrInvalidPriceUpdate.Wrapf("genesis account %d is not hex: %s", i, err)
		}
		update, err := DecodePriceUpdate(bz)
		if err != nil {
			return nil, fmt.Errorf("genesis account %d: %w", i, err)
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// Validate ensures every account decodes and no feed appears twice.
func (gs GenesisState) Validate() error {
	updates, err := gs.PriceUpdates()
	if err != nil {
		return err
	}

	seen := make(map[FeedID]struct{}, len(updates))
	for _, u := range updates {
		if _, dup := seen[u.Message.FeedID]; dup {
			return ErrInvalidPriceUpdate.Wrapf("duplicate genesis account for feed %s", u.Message.FeedID)
		}
		seen[u.Message.FeedID] = struct{}{}
	}
	return nil
}
