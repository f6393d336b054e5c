// Package config loads wizmerge settings from defaults, an optional TOML
// file, a .env file and WIZMERGE_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WIZMERGE_"

// Config is the full application configuration.
type Config struct {
	Server struct {
		Addr string `koanf:"addr"`
		Port int    `koanf:"port"`
	} `koanf:"server"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"` // console or json
	} `koanf:"log"`

	GitHub struct {
		Token  string `koanf:"token"`
		APIURL string `koanf:"api_url"`
	} `koanf:"github"`

	GitLab struct {
		Token string `koanf:"token"`
		URL   string `koanf:"url"`
	} `koanf:"gitlab"`

	Git struct {
		Path      string `koanf:"path"`
		UserName  string `koanf:"user_name"`
		UserEmail string `koanf:"user_email"`
	} `koanf:"git"`

	Retry struct {
		MaxRetries int           `koanf:"max_retries"`
		BaseDelay  time.Duration `koanf:"base_delay"`
		MaxDelay   time.Duration `koanf:"max_delay"`
	} `koanf:"retry"`

	RateLimit struct {
		RequestsPerSecond float64 `koanf:"requests_per_second"`
		Burst             int     `koanf:"burst"`
	} `koanf:"rate_limit"`

	Client struct {
		BackendURL string        `koanf:"backend_url"`
		Timeout    time.Duration `koanf:"timeout"`
	} `koanf:"client"`

	Resolve struct {
		Concurrency int `koanf:"concurrency"`
	} `koanf:"resolve"`
}

var defaults = map[string]interface{}{
	"server.addr":                    "0.0.0.0",
	"server.port":                    8080,
	"log.level":                      "info",
	"log.format":                     "console",
	"github.api_url":                 "https://api.github.com",
	"gitlab.url":                     "https://gitlab.com",
	"git.path":                       "git",
	"git.user_name":                  "WizardMerge Bot",
	"git.user_email":                 "wizardmerge@example.com",
	"retry.max_retries":              3,
	"retry.base_delay":               "1s",
	"retry.max_delay":                "30s",
	"rate_limit.requests_per_second": 10.0,
	"rate_limit.burst":               5,
	"client.timeout":                 "30s",
	"resolve.concurrency":            4,
}

// sections lists the top-level keys, longest first so that env names like
// WIZMERGE_RATE_LIMIT_BURST split after the right section.
var sections = func() []string {
	seen := map[string]bool{}
	var out []string
	for k := range defaults {
		s, _, _ := strings.Cut(k, ".")
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// DefaultPaths are tried in order when no explicit config path is given.
var DefaultPaths = []string{"./wizmerge.toml", "$HOME/.wizmerge.toml"}

// Load builds a Config. An explicit configPath must exist; default paths are
// skipped when missing.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", configPath, err)
		}
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
			break
		}
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitLab.Token == "" {
		cfg.GitLab.Token = os.Getenv("GITLAB_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps WIZMERGE_GIT_USER_NAME to git.user_name.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return key
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Resolve.Concurrency < 1 {
		return fmt.Errorf("resolve.concurrency must be at least 1")
	}
	return nil
}

// ListenAddr joins the server address and port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

const sample = `# wizmerge configuration

[server]
addr = "0.0.0.0"
port = 8080

[log]
level = "info"
format = "console"

[github]
# token = "ghp_..."
api_url = "https://api.github.com"

[gitlab]
# token = "glpat-..."
url = "https://gitlab.com"

[git]
user_name = "WizardMerge Bot"
user_email = "wizardmerge@example.com"

[retry]
max_retries = 3
base_delay = "1s"
max_delay = "30s"
`

// WriteSample writes a commented sample configuration to path.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sample), 0o644)
}
