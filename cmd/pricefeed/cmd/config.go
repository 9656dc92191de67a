package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// EnvPrefix scopes environment overrides, e.g.
// PRICEFEED_POLICIES_SOL_USD_MAX_AGE_SECONDS.
const EnvPrefix = "PRICEFEED"

// PolicyConfig is one named acceptance policy as read from configuration.
type PolicyConfig struct {
	FeedID                types.FeedID
	MaxAgeSeconds         uint64
	MaxConfidenceRatioBps uint64
	MinVerification       types.VerificationLevel
	MinPrice              int64
	MaxPrice              int64
}

// Config holds the named policies the verify command can apply.
type Config struct {
	DefaultPolicy string
	Policies      map[string]PolicyConfig
}

// NewViper returns a viper instance wired for PRICEFEED_* overrides
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads path into v, if set, and decodes every policy. Feed ids
// and verification levels are parsed here so a bad entry fails before any
// account is read.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DefaultPolicy: policyName(v.GetString("default_policy")),
		Policies:      make(map[string]PolicyConfig),
	}

	for name := range v.GetStringMap("policies") {
		pc, err := loadPolicyConfig(v, name)
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}
		cfg.Policies[name] = pc
	}

	if cfg.DefaultPolicy != "" {
		if _, ok := cfg.Policies[cfg.DefaultPolicy]; !ok {
			return nil, types.ErrInvalidPolicy.Wrapf("default_policy %q is not defined", cfg.DefaultPolicy)
		}
	}

	return cfg, nil
}

func loadPolicyConfig(v *viper.Viper, name string) (PolicyConfig, error) {
	key := func(field string) string { return fmt.Sprintf("policies.%s.%s", name, field) }

	pc := PolicyConfig{
		MaxAgeSeconds:         types.DefaultMaxAgeSeconds,
		MaxConfidenceRatioBps: types.DefaultMaxConfidenceRatioBps,
		MinVerification:       types.VerificationFull,
	}

	var err error
	if pc.FeedID, err = types.ParseFeedID(cast.ToString(v.Get(key("feed_id")))); err != nil {
		return pc, err
	}

	if raw := v.Get(key("max_age_seconds")); raw != nil {
		if pc.MaxAgeSeconds, err = cast.ToUint64E(raw); err != nil {
			return pc, types.ErrInvalidPolicy.Wrapf("max_age_seconds: %s", err)
		}
	}
	if raw := v.Get(key("max_confidence_ratio_bps")); raw != nil {
		if pc.MaxConfidenceRatioBps, err = cast.ToUint64E(raw); err != nil {
			return pc, types.ErrInvalidPolicy.Wrapf("max_confidence_ratio_bps: %s", err)
		}
	}
	if pc.MinVerification, err = types.ParseVerificationLevel(cast.ToString(v.Get(key("min_verification")))); err != nil {
		return pc, types.ErrInvalidPolicy.Wrap(err.Error())
	}
	if raw := v.Get(key("min_price")); raw != nil {
		if pc.MinPrice, err = cast.ToInt64E(raw); err != nil {
			return pc, types.ErrInvalidPolicy.Wrapf("min_price: %s", err)
		}
	}
	if raw := v.Get(key("max_price")); raw != nil {
		if pc.MaxPrice, err = cast.ToInt64E(raw); err != nil {
			return pc, types.ErrInvalidPolicy.Wrapf("max_price: %s", err)
		}
	}

	return pc, nil
}

// policyName folds a policy name the way viper folds map keys, so SOL_USD
// in default_policy or --policy finds the sol_usd table.
func policyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Names returns the configured policy names in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Policies))
	for name := range c.Policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Policy builds the named acceptance policy. An empty name selects
// default_policy.
func (c *Config) Policy(name string) (types.Policy, error) {
	name = policyName(name)
	if name == "" {
		name = c.DefaultPolicy
	}
	if name == "" {
		return types.Policy{}, types.ErrInvalidPolicy.Wrap("no policy selected and no default_policy configured")
	}

	pc, ok := c.Policies[name]
	if !ok {
		return types.Policy{}, types.ErrInvalidPolicy.Wrapf("policy %q is not defined", name)
	}
	return pc.Policy()
}

// Policy converts the configuration entry into a validated policy. Price
// bounds install a PriceBoundsGuard after the default guards.
func (pc PolicyConfig) Policy() (types.Policy, error) {
	var guards []types.Guard
	if pc.MinPrice != 0 || pc.MaxPrice != 0 {
		guards = append(guards, types.PriceBoundsGuard{Min: pc.MinPrice, Max: pc.MaxPrice})
	}

	policy := types.Policy{
		ExpectedFeed:          pc.FeedID,
		MaxAgeSeconds:         pc.MaxAgeSeconds,
		MaxConfidenceRatioBps: pc.MaxConfidenceRatioBps,
		MinVerification:       pc.MinVerification,
		Guards:                guards,
	}
	if err := policy.Validate(); err != nil {
		return types.Policy{}, err
	}
	return policy, nil
}
