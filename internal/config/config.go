package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Tracker struct {
		URL      string `koanf:"url"`
		Username string `koanf:"username"`
		Token    string `koanf:"token"`
	} `koanf:"tracker"`

	Store struct {
		Driver string `koanf:"driver"`
	} `koanf:"store"`

	Server struct {
		Port   int    `koanf:"port"`
		Prefix string `koanf:"prefix"`
	} `koanf:"server"`

	Logging struct {
		Level string `koanf:"level"`
	} `koanf:"logging"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"store.driver":  "memory",
		"server.port":   8787,
		"server.prefix": "!",
		"logging.level": "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./issuebot.toml", "$HOME/.issuebot.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix ISSUEBOT_
	k.Load(env.Provider("ISSUEBOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ISSUEBOT_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# issuebot Configuration

[tracker]
url = "https://jira.example.com"
username = "bot"
token = "your-api-token"

[store]
# memory | postgres (postgres reads DATABASE_URL from the env or .env)
driver = "memory"

[server]
port = 8787
prefix = "!"

[logging]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Tracker.URL == "" {
		return fmt.Errorf("tracker url is required")
	}
	if config.Tracker.Username == "" {
		return fmt.Errorf("tracker username is required")
	}
	if config.Tracker.Token == "" {
		return fmt.Errorf("tracker token is required")
	}

	switch config.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}

	return nil
}
