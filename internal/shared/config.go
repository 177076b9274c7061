package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Auth        AuthConfig        `toml:"auth"`
	HTTP        HTTPConfig        `toml:"http"`
}

// CredentialsConfig contains platform-specific application credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Deezer  DeezerConfig  `toml:"deezer"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DeezerConfig contains Deezer API credentials.
type DeezerConfig struct {
	AppID       string `toml:"app_id"`
	AppSecret   string `toml:"app_secret"`
	RedirectURI string `toml:"redirect_uri"`
}

// AuthConfig contains token cache and callback listener settings.
type AuthConfig struct {
	TokenFile      string `toml:"token_file"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CallbackHost   string `toml:"callback_host"`
	CallbackPort   int    `toml:"callback_port"`
}

// HTTPConfig contains request pacing and retry settings for platform clients.
type HTTPConfig struct {
	MinIntervalMS int `toml:"min_interval_ms"`
	MaxRetries    int `toml:"max_retries"`
}

// Map returns the Spotify credentials as a flat key-value map.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Map returns the Deezer credentials as a flat key-value map.
func (d DeezerConfig) Map() map[string]string {
	return map[string]string{
		"app_id":       d.AppID,
		"app_secret":   d.AppSecret,
		"redirect_uri": d.RedirectURI,
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A missing file returns [ErrMissingConfig] so callers can print a corrective message.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run `dzx config init` to create one)", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config parsed from the embedded example file.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// SaveConfig writes the configuration back to disk as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config file at the specified path from the embedded example.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultTokenPath returns the token cache location under the user config dir.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "dzx", "tokens.json"), nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TimeoutSeconds <= 0 {
		c.Auth.TimeoutSeconds = 120
	}
	if c.Auth.CallbackHost == "" {
		c.Auth.CallbackHost = "127.0.0.1"
	}
	if c.Auth.CallbackPort <= 0 {
		c.Auth.CallbackPort = 8080
	}
	if c.HTTP.MinIntervalMS <= 0 {
		c.HTTP.MinIntervalMS = 100
	}
	if c.HTTP.MaxRetries <= 0 {
		c.HTTP.MaxRetries = 3
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		c.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://%s:%d/callback", c.Auth.CallbackHost, c.Auth.CallbackPort)
	}
	if c.Credentials.Deezer.RedirectURI == "" {
		c.Credentials.Deezer.RedirectURI = fmt.Sprintf("http://%s:%d/deezer/callback", c.Auth.CallbackHost, c.Auth.CallbackPort)
	}
}
