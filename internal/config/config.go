package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-battle/internal/app"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"` // sqlite, redis or memory
		Path   string `yaml:"path"`
		Key    string `yaml:"key"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Pools struct {
		File string `yaml:"file"`
		Set  string `yaml:"set"`
		TTL  string `yaml:"ttl"`
	} `yaml:"pools"`
	Game struct {
		Rounds struct {
			Word   RoundConfig `yaml:"word"`
			Choice RoundConfig `yaml:"choice"`
			Image  RoundConfig `yaml:"image"`
			Bonus  RoundConfig `yaml:"bonus"`
		} `yaml:"rounds"`
		BonusReady *int `yaml:"bonus_ready"`
	} `yaml:"game"`
}

// RoundConfig overrides one round's rules. Unset fields keep the defaults.
type RoundConfig struct {
	Questions *int   `yaml:"questions"`
	Points    *int   `yaml:"points"`
	Seconds   *int   `yaml:"seconds"`
	Delay     string `yaml:"delay"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "quiz-battle.db"
	cfg.Store.Key = "quiz_game_state"
	cfg.Pools.Set = "default"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Rules applies the game section over app.DefaultRules.
func (c Config) Rules() app.Rules {
	rules := app.DefaultRules()
	rules.Word = c.Game.Rounds.Word.apply(rules.Word)
	rules.Choice = c.Game.Rounds.Choice.apply(rules.Choice)
	rules.Image = c.Game.Rounds.Image.apply(rules.Image)
	rules.Bonus = c.Game.Rounds.Bonus.apply(rules.Bonus)
	if c.Game.BonusReady != nil {
		rules.BonusReady = *c.Game.BonusReady
	}
	return rules
}

func (rc RoundConfig) apply(rr app.RoundRules) app.RoundRules {
	if rc.Questions != nil {
		rr.Questions = *rc.Questions
	}
	if rc.Points != nil && *rc.Points >= 0 {
		rr.Points = *rc.Points
	}
	if rc.Seconds != nil {
		rr.Seconds = *rc.Seconds
	}
	rr.Delay = TTLDuration(rc.Delay, rr.Delay)
	return rr
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
