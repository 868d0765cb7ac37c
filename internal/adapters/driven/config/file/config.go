package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// DefaultTokenEnv is the environment variable consulted for the provider
// token when the config does not name one.
const DefaultTokenEnv = "REPOKEEPER_GITHUB_TOKEN"

// Config is the full repokeeper configuration, loaded from TOML.
type Config struct {
	DefaultCategory string `toml:"default_category"`

	Provider   ProviderConfig   `toml:"provider"`
	Sync       SyncConfig       `toml:"sync"`
	Documents  DocumentsConfig  `toml:"documents"`
	Storage    StorageConfig    `toml:"storage"`
	Categories []CategoryConfig `toml:"categories"`
	Rules      []RuleConfig     `toml:"rules"`
}

// ProviderConfig selects the hosting provider account and token source.
type ProviderConfig struct {
	// Account is the GitHub account whose repositories are indexed.
	Account string `toml:"account"`

	// TokenEnv names the environment variable holding the access token.
	TokenEnv string `toml:"token_env"`
}

// Token reads the access token from the configured environment variable.
func (p *ProviderConfig) Token() (string, error) {
	token := os.Getenv(p.TokenEnv)
	if token == "" {
		return "", fmt.Errorf("%w: environment variable %s is empty", domain.ErrInvalidInput, p.TokenEnv)
	}
	return token, nil
}

// SyncConfig holds the engine's timing knobs. Zero values select the
// service defaults.
type SyncConfig struct {
	CacheTTLSeconds        int `toml:"cache_ttl_seconds"`
	PollIntervalSeconds    int `toml:"poll_interval_seconds"`
	DebounceSeconds        int `toml:"debounce_seconds"`
	MonitorIntervalSeconds int `toml:"monitor_interval_seconds"`

	// AppendMissingRegion controls whether a document without a marker
	// pair gets one appended instead of failing the merge. Defaults to
	// true when unset.
	AppendMissingRegion *bool `toml:"append_missing_region"`
}

// CacheTTL returns the configured cache TTL, zero when unset.
func (s *SyncConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// PollInterval returns the configured watcher poll interval, zero when unset.
func (s *SyncConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// Debounce returns the configured watcher debounce, zero when unset.
func (s *SyncConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceSeconds) * time.Second
}

// MonitorInterval returns the configured scan period, zero when unset.
func (s *SyncConfig) MonitorInterval() time.Duration {
	return time.Duration(s.MonitorIntervalSeconds) * time.Second
}

// AppendMissing reports whether missing marker regions are appended.
func (s *SyncConfig) AppendMissing() bool {
	if s.AppendMissingRegion == nil {
		return true
	}
	return *s.AppendMissingRegion
}

// DocumentsConfig overrides the marker pair delimiting managed regions.
type DocumentsConfig struct {
	StartMarker string `toml:"start_marker"`
	EndMarker   string `toml:"end_marker"`
}

// StorageConfig locates the local database.
type StorageConfig struct {
	// DataDir holds the sqlite database. Empty selects the default under
	// the user's home directory.
	DataDir string `toml:"data_dir"`
}

// CategoryConfig declares one classification bucket and its document.
type CategoryConfig struct {
	Name         string `toml:"name"`
	Label        string `toml:"label"`
	DocumentPath string `toml:"document_path"`
	WorkTree     string `toml:"work_tree"`
}

// RuleConfig declares one classification rule. Rules apply in file order.
type RuleConfig struct {
	Repo     string   `toml:"repo"`
	Keywords []string `toml:"keywords"`
	Category string   `toml:"category"`
}

// DefaultPath returns ~/.repokeeper/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".repokeeper", "config.toml"), nil
}

// Load reads and validates the configuration at path. An empty path selects
// the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path with restricted permissions,
// creating the parent directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.DefaultCategory == "" {
		c.DefaultCategory = domain.DefaultCategory
	}
	if c.Provider.TokenEnv == "" {
		c.Provider.TokenEnv = DefaultTokenEnv
	}
	if c.Documents.StartMarker == "" {
		c.Documents.StartMarker = domain.DefaultStartMarker
	}
	if c.Documents.EndMarker == "" {
		c.Documents.EndMarker = domain.DefaultEndMarker
	}
	for i := range c.Categories {
		if c.Categories[i].WorkTree == "" {
			c.Categories[i].WorkTree = filepath.Dir(c.Categories[i].DocumentPath)
		}
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Provider.Account == "" {
		return fmt.Errorf("%w: provider.account is required", domain.ErrInvalidInput)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", domain.ErrInvalidInput)
	}

	known := make(map[string]bool, len(c.Categories))
	for i := range c.Categories {
		cat := c.Categories[i].domain()
		if err := cat.Validate(); err != nil {
			return err
		}
		if known[cat.Name] {
			return fmt.Errorf("%w: duplicate category %q", domain.ErrInvalidInput, cat.Name)
		}
		known[cat.Name] = true
	}
	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.Category == "" {
			return fmt.Errorf("%w: rule %d has no category", domain.ErrInvalidInput, i)
		}
		if !known[rule.Category] && rule.Category != c.DefaultCategory {
			return fmt.Errorf("%w: rule %d targets unknown category %q", domain.ErrInvalidInput, i, rule.Category)
		}
		if rule.Repo == "" && len(rule.Keywords) == 0 {
			return fmt.Errorf("%w: rule %d matches nothing", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// DomainCategories converts the configured categories to domain values.
func (c *Config) DomainCategories() []domain.Category {
	out := make([]domain.Category, 0, len(c.Categories))
	for i := range c.Categories {
		out = append(out, c.Categories[i].domain())
	}
	return out
}

// DomainRules converts the configured rules to domain values, preserving
// file order.
func (c *Config) DomainRules() []domain.ClassifyRule {
	out := make([]domain.ClassifyRule, 0, len(c.Rules))
	for i := range c.Rules {
		out = append(out, domain.ClassifyRule{
			Repo:     c.Rules[i].Repo,
			Keywords: c.Rules[i].Keywords,
			Category: c.Rules[i].Category,
		})
	}
	return out
}

func (cc *CategoryConfig) domain() domain.Category {
	return domain.Category{
		Name:         cc.Name,
		Label:        cc.Label,
		DocumentPath: cc.DocumentPath,
		WorkTree:     cc.WorkTree,
	}
}
