package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seventy-zero/ResetRule/game"
	"github.com/seventy-zero/ResetRule/network"
	"github.com/seventy-zero/ResetRule/room"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	MaxPlayers     int `mapstructure:"max_players"`
	MaxOrbs        int `mapstructure:"max_orbs"`
	RulerThreshold int `mapstructure:"ruler_threshold"`

	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SendBuffer    int           `mapstructure:"send_buffer"`
	ReadLimit     int64         `mapstructure:"read_limit"`

	WorldSeed uint64 `mapstructure:"world_seed"` // 0 picks a random seed
	NumTowers int    `mapstructure:"num_towers"`
	NumOrbs   int    `mapstructure:"num_orbs"`
}

// Load reads the optional env files (".env" when none are given), then
// builds the config from defaults and TOWERS_* environment variables. A
// plain PORT variable overrides the listen address.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("max_players", 20)
	v.SetDefault("max_orbs", game.MaxOrbs)
	v.SetDefault("ruler_threshold", game.RulerThreshold)
	v.SetDefault("sweep_interval", "10s")
	v.SetDefault("idle_timeout", "2m")
	v.SetDefault("send_buffer", network.DefaultClientOptions().SendBuffer)
	v.SetDefault("read_limit", network.DefaultClientOptions().ReadLimit)
	v.SetDefault("world_seed", 0)
	v.SetDefault("num_towers", game.NumTowers)
	v.SetDefault("num_orbs", game.NumOrbs)

	v.SetEnvPrefix("TOWERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "PORT"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if port := v.GetString("port"); port != "" {
		cfg.Addr = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalid, name, v))
		}
	}
	positive("max_players", int64(c.MaxPlayers))
	positive("max_orbs", int64(c.MaxOrbs))
	positive("ruler_threshold", int64(c.RulerThreshold))
	positive("sweep_interval", int64(c.SweepInterval))
	positive("idle_timeout", int64(c.IdleTimeout))
	positive("send_buffer", int64(c.SendBuffer))
	positive("read_limit", c.ReadLimit)
	if c.NumTowers < 0 || c.NumOrbs < 0 {
		errs = append(errs, fmt.Errorf("%w: world sizes must not be negative", ErrInvalid))
	}
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: addr is empty", ErrInvalid))
	}
	return errors.Join(errs...)
}

func (c *Config) RoomOptions() room.Options {
	s := room.DefaultSettings()
	s.MaxPlayers = c.MaxPlayers
	s.MaxOrbs = c.MaxOrbs
	s.RulerThreshold = c.RulerThreshold
	s.World.NumTowers = c.NumTowers
	s.World.NumOrbs = c.NumOrbs
	return room.Options{
		Settings:      s,
		Seed:          c.WorldSeed,
		IdleTimeout:   c.IdleTimeout,
		SweepInterval: c.SweepInterval,
	}
}

func (c *Config) ClientOptions() network.ClientOptions {
	return network.ClientOptions{SendBuffer: c.SendBuffer, ReadLimit: c.ReadLimit}
}
