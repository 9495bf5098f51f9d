package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"landrent-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Renting   RentingConfig   `yaml:"renting"`
	Container ContainerConfig `yaml:"container"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Genesis   GenesisConfig   `yaml:"genesis"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selects the repository backend
type StorageConfig struct {
	Type string `yaml:"type"` // "memory" or "postgres"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RentingConfig contains the marketplace parameters
type RentingConfig struct {
	OffererGraceDelay   time.Duration  `yaml:"offerer_grace_delay"`
	OfferValidityWindow time.Duration  `yaml:"offer_validity_window"`
	PeriodLength        time.Duration  `yaml:"period_length"`
	FeePercentage       *int           `yaml:"fee_percentage"`
	FeeReceiver         domain.Address `yaml:"fee_receiver"`
	HostingAddress      domain.Address `yaml:"hosting_address"`
	AdminAddress        domain.Address `yaml:"admin_address"`
	CustodyAddress      domain.Address `yaml:"custody_address"`
	// CollectionMinMonthlyPrice maps a collection address to the lowest
	// accepted price of one period.
	CollectionMinMonthlyPrice map[domain.Address]domain.Amount `yaml:"collection_min_monthly_price"`
}

// ContainerConfig contains container index settings
type ContainerConfig struct {
	CollectionAddress     domain.Address `yaml:"collection_address"`
	LandCollectionAddress domain.Address `yaml:"land_collection_address"`
	MaxMembers            int            `yaml:"max_members"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReleaseExpiredOffers string `yaml:"release_expired_offers"`
}

// RateLimitConfig contains per-caller request limits
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// GenesisConfig seeds the in-process ledger and collections at startup
type GenesisConfig struct {
	Balances []GenesisBalance `yaml:"balances"`
	Assets   []GenesisAsset   `yaml:"assets"`
}

type GenesisBalance struct {
	Address domain.Address `yaml:"address"`
	Amount  domain.Amount  `yaml:"amount"`
}

// GenesisAsset mints TokenID of Collection to Owner.
type GenesisAsset struct {
	Collection domain.Address `yaml:"collection"`
	TokenID    uint64         `yaml:"token_id"`
	Owner      domain.Address `yaml:"owner"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, overrides and validates configuration bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Renting
	if val := os.Getenv("FEE_RECEIVER"); val != "" {
		c.Renting.FeeReceiver = domain.Address(val)
	}
	if val := os.Getenv("FEE_PERCENTAGE"); val != "" {
		var pct int
		if _, err := fmt.Sscanf(val, "%d", &pct); err == nil {
			c.Renting.FeePercentage = &pct
		}
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if err := c.Renting.validate(); err != nil {
		return err
	}
	if err := c.Container.validate(); err != nil {
		return err
	}

	// Scheduler defaults
	if c.Scheduler.ReleaseExpiredOffers == "" {
		c.Scheduler.ReleaseExpiredOffers = "0 */10 * * * *" // every 10 minutes
	}

	// Rate limit defaults
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 10
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}

	return c.Genesis.validate()
}

func (r *RentingConfig) validate() error {
	if r.OffererGraceDelay == 0 {
		r.OffererGraceDelay = 48 * time.Hour
	}
	if r.OfferValidityWindow == 0 {
		r.OfferValidityWindow = 7 * 24 * time.Hour
	}
	if r.PeriodLength == 0 {
		r.PeriodLength = 30 * 24 * time.Hour
	}
	if r.FeePercentage == nil {
		pct := 10
		r.FeePercentage = &pct
	}

	if r.OffererGraceDelay < 0 || r.OfferValidityWindow < 0 || r.PeriodLength < 0 {
		return fmt.Errorf("renting durations must be positive")
	}
	if r.OffererGraceDelay >= r.OfferValidityWindow {
		return fmt.Errorf("offerer grace delay %s must be shorter than offer validity window %s", r.OffererGraceDelay, r.OfferValidityWindow)
	}
	if *r.FeePercentage < 0 || *r.FeePercentage > 100 {
		return fmt.Errorf("fee percentage %d out of range [0,100]", *r.FeePercentage)
	}

	for name, a := range map[string]*domain.Address{
		"renting.fee_receiver":    &r.FeeReceiver,
		"renting.hosting_address": &r.HostingAddress,
		"renting.admin_address":   &r.AdminAddress,
		"renting.custody_address": &r.CustodyAddress,
	} {
		if err := normalize(name, a); err != nil {
			return err
		}
	}

	prices := make(map[domain.Address]domain.Amount, len(r.CollectionMinMonthlyPrice))
	for raw, price := range r.CollectionMinMonthlyPrice {
		addr, err := domain.ParseAddress(string(raw))
		if err != nil {
			return fmt.Errorf("renting.collection_min_monthly_price: %w", err)
		}
		if price < 0 {
			return fmt.Errorf("renting.collection_min_monthly_price: negative price for %s", addr)
		}
		prices[addr] = price
	}
	r.CollectionMinMonthlyPrice = prices
	return nil
}

func (c *ContainerConfig) validate() error {
	if c.MaxMembers == 0 {
		c.MaxMembers = 50
	}
	if c.MaxMembers < 0 {
		return fmt.Errorf("container.max_members must be positive")
	}
	if err := normalize("container.collection_address", &c.CollectionAddress); err != nil {
		return err
	}
	if err := normalize("container.land_collection_address", &c.LandCollectionAddress); err != nil {
		return err
	}
	if c.CollectionAddress == c.LandCollectionAddress {
		return fmt.Errorf("container and land collections must differ")
	}
	return nil
}

func (g *GenesisConfig) validate() error {
	for i := range g.Balances {
		if err := normalize(fmt.Sprintf("genesis.balances[%d].address", i), &g.Balances[i].Address); err != nil {
			return err
		}
		if g.Balances[i].Amount < 0 {
			return fmt.Errorf("genesis.balances[%d]: negative amount", i)
		}
	}
	for i := range g.Assets {
		if err := normalize(fmt.Sprintf("genesis.assets[%d].collection", i), &g.Assets[i].Collection); err != nil {
			return err
		}
		if err := normalize(fmt.Sprintf("genesis.assets[%d].owner", i), &g.Assets[i].Owner); err != nil {
			return err
		}
	}
	return nil
}

// normalize rewrites a required address into checksummed form.
func normalize(field string, a *domain.Address) error {
	if *a == "" {
		return fmt.Errorf("%s is required", field)
	}
	parsed, err := domain.ParseAddress(string(*a))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*a = parsed
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
