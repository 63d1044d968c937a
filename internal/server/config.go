package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/parlourlabs/holdem/internal/room"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerSettings    `hcl:"server,block"`
	Room     *RoomSettings     `hcl:"room,block"`
	Database *DatabaseSettings `hcl:"database,block"`
	Bots     []BotConfig       `hcl:"bot,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomSettings configures table and room defaults.
type RoomSettings struct {
	MaxSeats       int `hcl:"max_seats,optional"`
	ForcedBet      int `hcl:"forced_bet,optional"`
	BuyIn          int `hcl:"buy_in,optional"`
	TurnSeconds    int `hcl:"turn_seconds,optional"`
	AIGraceSeconds int `hcl:"ai_grace_seconds,optional"`
	TTLMinutes     int `hcl:"ttl_minutes,optional"`
}

// DatabaseSettings configures the ledger store. DSNEnv names the
// environment variable holding the Postgres DSN; empty means the
// in-memory store.
type DatabaseSettings struct {
	DSNEnv         string `hcl:"dsn_env,optional"`
	OpeningBalance int    `hcl:"opening_balance,optional"`
}

// BotConfig seats a built-in AI player in the default lobby at startup.
// Aggression tunes its heuristic strategy, defaulting to 0.5.
type BotConfig struct {
	Name       string  `hcl:"name,label"`
	Aggression float64 `hcl:"aggression,optional"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Room: &RoomSettings{
			MaxSeats:       6,
			ForcedBet:      5,
			BuyIn:          200,
			TurnSeconds:    60,
			AIGraceSeconds: 2,
			TTLMinutes:     30,
		},
		Database: &DatabaseSettings{
			OpeningBalance: 500,
		},
	}
}

// LoadConfig parses an HCL config file, applying defaults for anything
// omitted. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}

	defaults := DefaultConfig()
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaults.Server.Address
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaults.Server.LogLevel
	}
	if cfg.Room == nil {
		cfg.Room = defaults.Room
	} else {
		d := defaults.Room
		if cfg.Room.MaxSeats == 0 {
			cfg.Room.MaxSeats = d.MaxSeats
		}
		if cfg.Room.ForcedBet == 0 {
			cfg.Room.ForcedBet = d.ForcedBet
		}
		if cfg.Room.BuyIn == 0 {
			cfg.Room.BuyIn = d.BuyIn
		}
		if cfg.Room.TurnSeconds == 0 {
			cfg.Room.TurnSeconds = d.TurnSeconds
		}
		if cfg.Room.AIGraceSeconds == 0 {
			cfg.Room.AIGraceSeconds = d.AIGraceSeconds
		}
		if cfg.Room.TTLMinutes == 0 {
			cfg.Room.TTLMinutes = d.TTLMinutes
		}
	}
	if cfg.Database == nil {
		cfg.Database = defaults.Database
	} else if cfg.Database.OpeningBalance == 0 {
		cfg.Database.OpeningBalance = defaults.Database.OpeningBalance
	}
	for i := range cfg.Bots {
		if cfg.Bots[i].Aggression == 0 {
			cfg.Bots[i].Aggression = 0.5
		}
	}

	return &cfg, nil
}

// RoomConfig converts the settings into the room package's config.
func (c *Config) RoomConfig() room.Config {
	return room.Config{
		MaxSeats:    c.Room.MaxSeats,
		ForcedBet:   c.Room.ForcedBet,
		BuyIn:       c.Room.BuyIn,
		TurnTimeout: time.Duration(c.Room.TurnSeconds) * time.Second,
		AIGrace:     time.Duration(c.Room.AIGraceSeconds) * time.Second,
		TTL:         time.Duration(c.Room.TTLMinutes) * time.Minute,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
