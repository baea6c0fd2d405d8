package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/supply"
)

// Типы хранилища
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Server - настройки процесса, читаемые из окружения
type Server struct {
	Port           int           `env:"GOOFWORLD_PORT" envDefault:"3001"`
	Store          string        `env:"GOOFWORLD_STORE" envDefault:"sqlite"`
	DBPath         string        `env:"GOOFWORLD_DB_PATH" envDefault:"data/game.db"`
	Seed           int64         `env:"GOOFWORLD_SEED" envDefault:"0"`
	ConfigFile     string        `env:"GOOFWORLD_CONFIG"`
	Bots           int           `env:"GOOFWORLD_BOTS" envDefault:"0"`
	BotInterval    time.Duration `env:"GOOFWORLD_BOT_INTERVAL" envDefault:"10s"`
	PersistTimeout time.Duration `env:"GOOFWORLD_PERSIST_TIMEOUT" envDefault:"5s"`
	CommandBuffer  int           `env:"GOOFWORLD_COMMAND_BUFFER" envDefault:"100"`
}

// FromEnv читает Server из переменных окружения.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые env не может проверить сам.
func (s Server) Validate() error {
	switch strings.ToLower(s.Store) {
	case StoreSQLite, StoreBolt, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want sqlite, bolt or memory)", s.Store)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range", s.Port)
	}
	if s.Bots < 0 {
		return fmt.Errorf("bots must not be negative")
	}
	if s.Bots > 0 && s.BotInterval <= 0 {
		return fmt.Errorf("bot interval must be positive")
	}
	return nil
}

// Addr возвращает адрес для http.Server.
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type fileConfig struct {
	Topology topologyFile `toml:"topology"`
	Timing   timingFile   `toml:"timing"`
}

type topologyFile struct {
	Warehouses         int      `toml:"warehouses"`
	StoresPerWarehouse int      `toml:"stores_per_warehouse"`
	HouseholdsPerStore int      `toml:"households_per_store"`
	Neighborhoods      int      `toml:"neighborhoods"`
	Items              []string `toml:"items"`
	DeletePercent      int      `toml:"delete_percent"`
	ScramblePercent    int      `toml:"scramble_percent"`
}

type timingFile struct {
	TickInterval string `toml:"tick_interval"`
	GameDuration string `toml:"game_duration"`
}

// LoadTopology читает TOML-файл поверх параметров по умолчанию.
// Пустой путь - параметры по умолчанию.
func LoadTopology(path string) (supply.Params, error) {
	params := supply.DefaultParams()
	if strings.TrimSpace(path) == "" {
		return params, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return supply.Params{}, fmt.Errorf("load topology config: %w", err)
	}

	if meta.IsDefined("topology", "warehouses") {
		params.Warehouses = raw.Topology.Warehouses
	}
	if meta.IsDefined("topology", "stores_per_warehouse") {
		params.StoresPerWarehouse = raw.Topology.StoresPerWarehouse
	}
	if meta.IsDefined("topology", "households_per_store") {
		params.HouseholdsPerStore = raw.Topology.HouseholdsPerStore
	}
	if meta.IsDefined("topology", "neighborhoods") {
		params.Neighborhoods = raw.Topology.Neighborhoods
	}
	if meta.IsDefined("topology", "items") {
		params.Items = normalizeItems(raw.Topology.Items)
	}
	if meta.IsDefined("topology", "delete_percent") {
		params.DeletePercent = raw.Topology.DeletePercent
	}
	if meta.IsDefined("topology", "scramble_percent") {
		params.ScramblePercent = raw.Topology.ScramblePercent
	}

	if meta.IsDefined("timing", "tick_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timing.TickInterval))
		if err != nil {
			return supply.Params{}, fmt.Errorf("parse tick_interval: %w", err)
		}
		params.TickInterval = d
	}
	if meta.IsDefined("timing", "game_duration") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timing.GameDuration))
		if err != nil {
			return supply.Params{}, fmt.Errorf("parse game_duration: %w", err)
		}
		params.GameDuration = d
	}

	if err := params.Validate(); err != nil {
		return supply.Params{}, fmt.Errorf("topology config %s: %w", path, err)
	}
	return params, nil
}

// Engine собирает конфиг движка: окружение + файл топологии.
func (s Server) Engine() (engine.Config, error) {
	params, err := LoadTopology(s.ConfigFile)
	if err != nil {
		return engine.Config{}, err
	}

	cfg := engine.NewConfig()
	cfg.Seed = s.Seed
	cfg.Topology = params
	if s.PersistTimeout > 0 {
		cfg.PersistTimeout = s.PersistTimeout
	}
	if s.CommandBuffer > 0 {
		cfg.CommandBuffer = s.CommandBuffer
	}
	return cfg, nil
}

func normalizeItems(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
