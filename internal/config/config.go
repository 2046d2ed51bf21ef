package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Domains []string `yaml:"domains"`
	Output  string   `yaml:"output"`
	Tools   []Tool   `yaml:"tools"`
	Limits  Limits   `yaml:"limits"`
	DNS     DNS      `yaml:"dns"`
}

// Tool is one row of the external tool table. "{domain}" in Args is
// replaced with the target.
type Tool struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	Args        []string `yaml:"args"`
	Check       []string `yaml:"check"`
	VersionArgs []string `yaml:"version_args,omitempty"`
	MinVersion  string   `yaml:"min_version,omitempty"`
	Dir         string   `yaml:"dir,omitempty"`
	Enabled     *bool    `yaml:"enabled,omitempty"`
}

func (t Tool) IsEnabled() bool { return t.Enabled == nil || *t.Enabled }

type Limits struct {
	Workers             int `yaml:"workers"`
	CheckTimeoutSeconds int `yaml:"check_timeout_seconds"`
	ToolTimeoutSeconds  int `yaml:"tool_timeout_seconds"`
	HTTPTimeoutSeconds  int `yaml:"http_timeout_seconds"`
	DNSTimeoutSeconds   int `yaml:"dns_timeout_seconds"`
}

func (l Limits) CheckTimeout() time.Duration { return seconds(l.CheckTimeoutSeconds) }
func (l Limits) ToolTimeout() time.Duration  { return seconds(l.ToolTimeoutSeconds) }
func (l Limits) HTTPTimeout() time.Duration  { return seconds(l.HTTPTimeoutSeconds) }
func (l Limits) DNSTimeout() time.Duration   { return seconds(l.DNSTimeoutSeconds) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

type DNS struct {
	// Servers are host:port resolvers queried directly. Empty means the
	// system resolver.
	Servers []string `yaml:"servers"`
}

var ErrDomainNotAllowed = errors.New("domain not allowed")

func Default() *Config {
	return &Config{
		Domains: []string{"testfire.net", "vulnweb.com"},
		Output:  "output",
		Tools: []Tool{
			{
				Name:  "subscraper",
				Path:  "python3",
				Args:  []string{"subscraper/subscraper/subscraper.py", "-d", "{domain}", "-silent", "-active"},
				Check: []string{"subscraper/subscraper/subscraper.py", "--help"},
			},
			{
				Name:        "subfinder",
				Path:        "subfinder",
				Args:        []string{"-d", "{domain}", "-all", "-silent"},
				Check:       []string{"--help"},
				VersionArgs: []string{"-version"},
				MinVersion:  ">= 2.5.0",
			},
			{
				Name:        "amass",
				Path:        "amass",
				Args:        []string{"enum", "-passive", "-d", "{domain}"},
				Check:       []string{"--help"},
				VersionArgs: []string{"-version"},
			},
			{
				Name:  "assetfinder",
				Path:  "assetfinder",
				Args:  []string{"--subs-only", "{domain}"},
				Check: []string{"--help"},
			},
			{
				Name:  "sublist3r",
				Path:  "sublist3r",
				Args:  []string{"-d", "{domain}"},
				Check: []string{"--help"},
			},
		},
		Limits: Limits{
			Workers:             20,
			CheckTimeoutSeconds: 10,
			ToolTimeoutSeconds:  300,
			HTTPTimeoutSeconds:  5,
			DNSTimeoutSeconds:   3,
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Output == "" {
		cfg.Output = "output"
	}
	if cfg.Limits.Workers <= 0 {
		cfg.Limits.Workers = 20
	}
	for i := range cfg.Tools {
		if cfg.Tools[i].Name == "" {
			return nil, fmt.Errorf("parse config: tool %d has no name", i)
		}
		if cfg.Tools[i].Path == "" {
			cfg.Tools[i].Path = cfg.Tools[i].Name
		}
		cfg.Tools[i].Path = expandHome(cfg.Tools[i].Path)
		cfg.Tools[i].Dir = expandHome(cfg.Tools[i].Dir)
	}
	return cfg, nil
}

// Save writes cfg back as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// CheckDomain returns ErrDomainNotAllowed unless domain is one of Domains.
func (c *Config) CheckDomain(domain string) error {
	if domain == "" {
		return errors.New("domain is required")
	}
	if !slices.Contains(c.Domains, domain) {
		return fmt.Errorf("%w: %q (choose from %s)", ErrDomainNotAllowed, domain, strings.Join(c.Domains, ", "))
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
