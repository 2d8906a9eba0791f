package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/betledger/ledger/internal/domain"
)

// housesFile is the layout of the opening-balance file:
//
//	[[house]]
//	name = "Superbet"
//	balance = "250.00"
type housesFile struct {
	House []domain.HouseSeed `toml:"house"`
}

// LoadHouseSeeds reads opening balances from a TOML file. An empty path
// yields no seeds.
func LoadHouseSeeds(path string) ([]domain.HouseSeed, error) {
	if path == "" {
		return nil, nil
	}

	var f housesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("config.LoadHouseSeeds: decode %q: %w", path, err)
	}

	seen := make(map[string]bool, len(f.House))
	for i, h := range f.House {
		name := strings.TrimSpace(h.Name)
		if name == "" {
			return nil, fmt.Errorf("config.LoadHouseSeeds: house #%d has no name", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("config.LoadHouseSeeds: house %q listed twice", name)
		}
		if h.Balance.IsNegative() {
			return nil, errors.New("config.LoadHouseSeeds: opening balance of " + name + " is negative")
		}
		seen[name] = true
		f.House[i].Name = name
	}
	return f.House, nil
}
