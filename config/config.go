// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/consensus/bft"
	"github.com/ChainSafe/sealer/lib/consensus/engine"
	"github.com/ChainSafe/sealer/lib/consensus/pow"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/ChainSafe/sealer/lib/validators"
	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
	"github.com/naoina/toml"
)

// ErrInvalidConfig is wrapped by every error returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the node configuration file.
type Config struct {
	Global    GlobalConfig    `toml:"global,omitempty"`
	Log       LogConfig       `toml:"log,omitempty"`
	Engine    EngineConfig    `toml:"engine,omitempty"`
	Authority AuthorityConfig `toml:"authority,omitempty"`
	PoW       PoWConfig       `toml:"pow,omitempty"`
	BFT       BFTConfig       `toml:"bft,omitempty"`
}

// GlobalConfig holds the node wide settings.
type GlobalConfig struct {
	BasePath string `toml:"basepath,omitempty" validate:"required"`
	LogLvl   string `toml:"log,omitempty" validate:"omitempty,loglevel"`
	// Metrics is the address of the metrics server, disabled when empty.
	Metrics string `toml:"metrics,omitempty" validate:"omitempty,hostname_port"`
	// Key is the hex encoded secp256k1 private key of the local signer.
	Key string `toml:"key,omitempty" validate:"omitempty,hexadecimal"`
}

// LogConfig holds the log level of each package, overriding the global one.
type LogConfig struct {
	EngineLvl  string `toml:"engine,omitempty" validate:"omitempty,loglevel"`
	BFTLvl     string `toml:"bft,omitempty" validate:"omitempty,loglevel"`
	VotesLvl   string `toml:"votes,omitempty" validate:"omitempty,loglevel"`
	EpochLvl   string `toml:"epoch,omitempty" validate:"omitempty,loglevel"`
	StateLvl   string `toml:"state,omitempty" validate:"omitempty,loglevel"`
	MetricsLvl string `toml:"metrics,omitempty" validate:"omitempty,loglevel"`
}

// EngineConfig selects the consensus algorithm.
type EngineConfig struct {
	Kind string `toml:"kind" validate:"oneof=solo authority pow bft"`
	// Signer is the solo signer address. It defaults to the local key.
	Signer     string            `toml:"signer,omitempty"`
	Validators []ValidatorConfig `toml:"validators,omitempty" validate:"dive"`
	Threshold  ThresholdConfig   `toml:"threshold,omitempty"`
}

// ValidatorConfig is one validator of a set.
type ValidatorConfig struct {
	Address string `toml:"address" validate:"required"`
	Weight  uint64 `toml:"weight,omitempty"`
}

// ThresholdConfig is the quorum fraction.
type ThresholdConfig struct {
	Numerator   uint64 `toml:"numerator"`
	Denominator uint64 `toml:"denominator" validate:"required"`
}

// AuthorityConfig configures the fixed authority round robin.
type AuthorityConfig struct {
	Step uint64 `toml:"step,omitempty"`
}

// PoWConfig configures proof of work sealing.
type PoWConfig struct {
	MinScore    uint64 `toml:"min-score,omitempty"`
	MaxAttempts uint64 `toml:"max-attempts,omitempty"`
}

// BFTConfig configures the BFT round machine.
type BFTConfig struct {
	Propose   string `toml:"propose,omitempty" validate:"omitempty,duration"`
	Prevote   string `toml:"prevote,omitempty" validate:"omitempty,duration"`
	Precommit string `toml:"precommit,omitempty" validate:"omitempty,duration"`
	Growth    string `toml:"growth,omitempty" validate:"omitempty,oneof=linear exponential"`
	Delta     string `toml:"delta,omitempty" validate:"omitempty,duration"`
	Factor    string `toml:"factor,omitempty" validate:"omitempty,numeric"`
	Max       string `toml:"max,omitempty" validate:"omitempty,duration"`
	Buffer    int    `toml:"buffer,omitempty" validate:"gte=0"`

	Transitions []TransitionConfig `toml:"transitions,omitempty" validate:"dive"`
}

// TransitionConfig schedules a validator set change at Height.
type TransitionConfig struct {
	Height     uint64            `toml:"height" validate:"required"`
	Validators []ValidatorConfig `toml:"validators" validate:"required,dive"`
}

// Default returns the configuration of a single node development chain
// sealed by the solo engine.
func Default() *Config {
	timeouts := bft.DefaultTimeouts()
	return &Config{
		Global: GlobalConfig{
			BasePath: "~/.sealer",
			LogLvl:   log.Info.String(),
		},
		Engine: EngineConfig{
			Kind: consensus.Solo.String(),
			Threshold: ThresholdConfig{
				Numerator:   validators.DefaultThreshold.Numerator,
				Denominator: validators.DefaultThreshold.Denominator,
			},
		},
		Authority: AuthorityConfig{Step: 5},
		PoW:       PoWConfig{MinScore: 1 << 16, MaxAttempts: 1 << 20},
		BFT: BFTConfig{
			Propose:   timeouts.Propose.String(),
			Prevote:   timeouts.Prevote.String(),
			Precommit: timeouts.Precommit.String(),
			Growth:    timeouts.Growth.String(),
			Delta:     timeouts.Delta.String(),
			Factor:    strconv.FormatFloat(timeouts.Factor, 'f', -1, 64),
			Max:       timeouts.Max.String(),
		},
	}
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file: %w", err)
	}

	cfg := Default()
	if err = toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("cannot decode configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// Export writes cfg as TOML to path.
func (cfg *Config) Export(path string) error {
	raw, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("cannot encode configuration: %w", err)
	}
	if err = os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("cannot write configuration file: %w", err)
	}
	return nil
}

// Validate checks the struct constraints, then that the configuration
// converts to an engine configuration.
func (cfg *Config) Validate() error {
	if err := newValidator().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if _, err := cfg.Signer(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch engineCfg.Kind {
	case consensus.Authority:
		if cfg.Authority.Step == 0 {
			return fmt.Errorf("%w: authority step is zero", ErrInvalidConfig)
		}
		fallthrough
	case consensus.BFT:
		if len(engineCfg.Validators) == 0 {
			return fmt.Errorf("%w: %s engine has no validators", ErrInvalidConfig, engineCfg.Kind)
		}
		if _, err = types.NewValidatorSnapshot(engineCfg.Validators); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case consensus.PoW:
		if cfg.PoW.MinScore == 0 {
			return fmt.Errorf("%w: pow min score is zero", ErrInvalidConfig)
		}
	}
	return nil
}

// Signer returns the local signer, or nil if no key is configured.
func (cfg *Config) Signer() (*secp256k1.Keypair, error) {
	if cfg.Global.Key == "" {
		return nil, nil
	}
	kp, err := secp256k1.NewKeypairFromHex(cfg.Global.Key)
	if err != nil {
		return nil, fmt.Errorf("cannot decode signer key: %w", err)
	}
	return kp, nil
}

// EngineConfig converts cfg to the configuration of engine.New.
func (cfg *Config) EngineConfig() (engine.Config, error) {
	kind, err := consensus.ParseKind(cfg.Engine.Kind)
	if err != nil {
		return engine.Config{}, err
	}

	out := engine.Config{
		Kind:         kind,
		StepDuration: cfg.Authority.Step,
		PoW: pow.Config{
			MinScore:    uint256.NewInt(cfg.PoW.MinScore),
			MaxAttempts: cfg.PoW.MaxAttempts,
		},
		BufferSize: cfg.BFT.Buffer,
	}

	if cfg.Engine.Signer != "" {
		out.SoloSigner, err = common.HexToAddress(cfg.Engine.Signer)
		if err != nil {
			return engine.Config{}, fmt.Errorf("%w: solo signer: %s", consensus.ErrConfiguration, err)
		}
	}

	if out.Validators, err = convertValidators(cfg.Engine.Validators); err != nil {
		return engine.Config{}, err
	}

	out.Threshold, err = validators.NewThreshold(cfg.Engine.Threshold.Numerator, cfg.Engine.Threshold.Denominator)
	if err != nil {
		return engine.Config{}, err
	}

	if out.Timeouts, err = cfg.BFT.timeouts(); err != nil {
		return engine.Config{}, err
	}

	if len(cfg.BFT.Transitions) > 0 {
		out.Transitions = make(map[uint64][]types.Validator, len(cfg.BFT.Transitions))
		for _, transition := range cfg.BFT.Transitions {
			if _, ok := out.Transitions[transition.Height]; ok {
				return engine.Config{}, fmt.Errorf("%w: two transitions at height %d",
					consensus.ErrConfiguration, transition.Height)
			}
			set, err := convertValidators(transition.Validators)
			if err != nil {
				return engine.Config{}, err
			}
			out.Transitions[transition.Height] = set
		}
	}

	return out, nil
}

// ApplyLogLevels patches the global log level, then the package ones.
func (cfg *Config) ApplyLogLevels() error {
	if cfg.Global.LogLvl != "" {
		level, err := log.ParseLevel(cfg.Global.LogLvl)
		if err != nil {
			return err
		}
		log.PatchLevel(level)
	}

	packages := []struct {
		name  string
		level string
	}{
		{name: "engine", level: cfg.Log.EngineLvl},
		{name: "bft", level: cfg.Log.BFTLvl},
		{name: "votes", level: cfg.Log.VotesLvl},
		{name: "epoch", level: cfg.Log.EpochLvl},
		{name: "state", level: cfg.Log.StateLvl},
		{name: "metrics", level: cfg.Log.MetricsLvl},
	}
	for _, pkg := range packages {
		if pkg.level == "" {
			continue
		}
		level, err := log.ParseLevel(pkg.level)
		if err != nil {
			return fmt.Errorf("%s log level: %w", pkg.name, err)
		}
		log.PatchPackage(pkg.name, level)
	}
	return nil
}

func (c BFTConfig) timeouts() (bft.Timeouts, error) {
	timeouts := bft.DefaultTimeouts()

	durations := []struct {
		value  string
		target *time.Duration
	}{
		{value: c.Propose, target: &timeouts.Propose},
		{value: c.Prevote, target: &timeouts.Prevote},
		{value: c.Precommit, target: &timeouts.Precommit},
		{value: c.Delta, target: &timeouts.Delta},
		{value: c.Max, target: &timeouts.Max},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return bft.Timeouts{}, fmt.Errorf("%w: %s", consensus.ErrConfiguration, err)
		}
		*d.target = parsed
	}

	if c.Growth != "" {
		growth, err := bft.ParseGrowth(c.Growth)
		if err != nil {
			return bft.Timeouts{}, err
		}
		timeouts.Growth = growth
	}
	if c.Factor != "" {
		factor, err := strconv.ParseFloat(c.Factor, 64)
		if err != nil {
			return bft.Timeouts{}, fmt.Errorf("%w: timeout factor: %s", consensus.ErrConfiguration, err)
		}
		timeouts.Factor = factor
	}

	if err := timeouts.Validate(); err != nil {
		return bft.Timeouts{}, err
	}
	return timeouts, nil
}

func convertValidators(in []ValidatorConfig) ([]types.Validator, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]types.Validator, len(in))
	for i, v := range in {
		address, err := common.HexToAddress(v.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: validator %d: %s", consensus.ErrConfiguration, i, err)
		}
		out[i] = types.Validator{Address: address, Weight: v.Weight}
	}
	return out, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := log.ParseLevel(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	})
	return validate
}
