// Package config loads the party fetcher settings.
//
// Defaults point at the production Go Out site and the Parties247 backend. An optional
// YAML file overrides any subset of them; fields missing from the file keep their
// default value.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GoOut struct {
	BaseURL        string        `yaml:"base_url"`   // https://www.go-out.co
	APIPath        string        `yaml:"api_path"`   // JSON endpoints live under this path
	EventPath      string        `yaml:"event_path"` // public event pages: <base_url><event_path><slug>
	Location       string        `yaml:"location"`
	Limit          int           `yaml:"limit"`
	NightlifeTypes []string      `yaml:"nightlife_types"`
	NightlifePage  string        `yaml:"nightlife_page"` // HTML fallback path
	WeekendPage    string        `yaml:"weekend_page"`   // HTML fallback path
	UserAgent      string        `yaml:"user_agent"`     // sent on HTML fallback requests
	Timeout        time.Duration `yaml:"timeout"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url"`
	EnvFile string        `yaml:"env_file"` // key=value file consulted for the admin password
	Timeout time.Duration `yaml:"timeout"`
}

type MyEvents struct {
	LoginURL   string        `yaml:"login_url"`
	EventsURL  string        `yaml:"events_url"`
	SiteURL    string        `yaml:"site_url"` // opened by the browser bootstrap and sent as Origin
	Limit      int           `yaml:"limit"`
	PayloadDir string        `yaml:"payload_dir"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Output struct {
	Dir string `yaml:"dir"` // empty disables per-job JSON artifacts
}

type Config struct {
	GoOut    GoOut    `yaml:"goout"`
	Backend  Backend  `yaml:"backend"`
	MyEvents MyEvents `yaml:"my_events"`
	Output   Output   `yaml:"output"`
}

// Default returns the production settings
func Default() Config {
	return Config{
		GoOut: GoOut{
			BaseURL:        "https://www.go-out.co",
			APIPath:        "/endOne/",
			EventPath:      "/event/",
			Location:       "IL",
			Limit:          50,
			NightlifeTypes: []string{"תל אביב", "מועדוני לילה"},
			NightlifePage:  "/tickets/nightlife",
			WeekendPage:    "/weekend",
			UserAgent:      "Mozilla/5.0",
			Timeout:        15 * time.Second,
		},
		Backend: Backend{
			BaseURL: "https://parties247-backend.onrender.com",
			EnvFile: ".env",
			Timeout: 20 * time.Second,
		},
		MyEvents: MyEvents{
			LoginURL:   "https://api.fe.prod.go-out.co/auth/login",
			EventsURL:  "https://api.fe.prod.go-out.co/events/myEvents",
			SiteURL:    "https://www.go-out.co",
			Limit:      100,
			PayloadDir: "auth_payload",
			Timeout:    20 * time.Second,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the jobs cannot run with
func (c Config) Validate() error {
	if strings.TrimSpace(c.GoOut.BaseURL) == "" {
		return errors.New("goout.base_url is required")
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url is required")
	}
	if c.GoOut.Limit <= 0 {
		return fmt.Errorf("goout.limit must be positive, got %d", c.GoOut.Limit)
	}
	if c.GoOut.Timeout <= 0 || c.Backend.Timeout <= 0 || c.MyEvents.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// APIBaseURL is the prefix of the Go Out JSON endpoints
func (g GoOut) APIBaseURL() string {
	return strings.TrimRight(g.BaseURL, "/") + "/" + strings.Trim(g.APIPath, "/") + "/"
}

// EventBaseURL is the prefix every public event URL is built from
func (g GoOut) EventBaseURL() string {
	return strings.TrimRight(g.BaseURL, "/") + "/" + strings.Trim(g.EventPath, "/") + "/"
}
