// Package config loads configuration for the server and the CLI client.
// Precedence, lowest to highest: defaults, YAML config file, ANKI_*
// environment variables, command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

const envPrefix = "ANKI_"

// Server configures the remote store process.
type Server struct {
	Addr         string   `koanf:"addr"`
	DatabaseDSN  string   `koanf:"database_dsn"`
	AllowOrigins []string `koanf:"allow_origins"`
	LogLevel     string   `koanf:"log_level"`
}

// Client configures the CLI.
type Client struct {
	ServerURL   string        `koanf:"server_url"`
	UserID      string        `koanf:"user_id"`
	DBPath      string        `koanf:"db_path"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`
}

// ServerFlags declares the server's command-line flags on fs.
func ServerFlags(fs *flag.FlagSet) {
	fs.String("config", "", "path to YAML config file")
	fs.String("addr", "", "listen address")
	fs.String("database_dsn", "", "PostgreSQL DSN")
	fs.StringSlice("allow_origins", nil, "allowed CORS origins")
	fs.String("log_level", "", "zap log level")
}

// ClientFlags declares the CLI's command-line flags on fs.
func ClientFlags(fs *flag.FlagSet) {
	fs.String("config", "", "path to YAML config file")
	fs.String("server_url", "", "sync server base URL")
	fs.String("user_id", "", "sync account id")
	fs.String("db_path", "", "path to the local sqlite database")
	fs.Duration("http_timeout", 0, "per-request sync timeout")
}

// LoadServer resolves the server configuration from the parsed flag set.
func LoadServer(fs *flag.FlagSet) (*Server, error) {
	cfg := &Server{
		Addr:     ":8787",
		LogLevel: "info",
	}
	if err := load(fs, cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database_dsn is required")
	}
	return cfg, nil
}

// LoadClient resolves the CLI configuration from the parsed flag set.
func LoadClient(fs *flag.FlagSet) (*Client, error) {
	cfg := &Client{
		ServerURL:   "http://localhost:8787",
		UserID:      "temp-user",
		DBPath:      defaultDBPath(),
		HTTPTimeout: 10 * time.Second,
	}
	return cfg, load(fs, cfg)
}

func load(fs *flag.FlagSet, out any) error {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	// ANKI_SERVER_URL becomes server_url.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *flag.Flag) (string, any) {
		if !f.Changed || f.Name == "config" {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return fmt.Errorf("load flags: %w", err)
	}

	return k.Unmarshal("", out)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "anki.db"
	}
	return home + "/.anki-antoine/anki.db"
}
