// Package config loads service settings from an optional config.yaml and
// DYNPRICE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/decay_prices"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSpanner  = "spanner"
	DriverPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Storage   StorageConfig
	Decay     DecayConfig
	Pricing   PricingConfig
	Predictor domain.PredictorConfig
	Shutdown  time.Duration
	LogLevel  string
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

// GRPCConfig serves the standard health service. An empty Addr disables it.
type GRPCConfig struct {
	Addr string
}

type StorageConfig struct {
	Driver          string
	SpannerDatabase string
	PostgresDSN     string
	PostgresMaxConn int32
	AutoMigrate     bool
}

type DecayConfig struct {
	Interval          time.Duration
	Grace             time.Duration
	TickTimeout       time.Duration
	PerProductTimeout time.Duration
	Enabled           bool
}

type PricingConfig struct {
	HighDemandCategories []string
	HighDemand           domain.DemandProfile
	Normal               domain.DemandProfile
	DefaultBounds        domain.PriceBounds
}

// DecayEngineConfig returns the decay use case settings.
func (c Config) DecayEngineConfig() decay_prices.Config {
	return decay_prices.Config{
		Grace:             c.Decay.Grace,
		PerProductTimeout: c.Decay.PerProductTimeout,
	}
}

// Catalog builds the demand catalog from the pricing settings.
func (c Config) Catalog() (*domain.DemandCatalog, error) {
	membership := make(map[string]domain.DemandClass, len(c.Pricing.HighDemandCategories))
	for _, cat := range c.Pricing.HighDemandCategories {
		membership[cat] = domain.HighDemand
	}
	return domain.NewDemandCatalog([]domain.DemandProfile{c.Pricing.HighDemand, c.Pricing.Normal}, membership)
}

func setDefaults(v *viper.Viper) {
	hd := domain.DefaultHighDemandProfile()
	nm := domain.DefaultNormalProfile()
	bounds := domain.DefaultPriceBounds()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("grpc.addr", ":9090")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.auto_migrate", false)
	v.SetDefault("spanner.database", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 5)

	v.SetDefault("decay.enabled", true)
	v.SetDefault("decay.interval", "60s")
	v.SetDefault("decay.grace", "2m")
	v.SetDefault("decay.tick_timeout", "30s")
	v.SetDefault("decay.per_product_timeout", "5s")

	v.SetDefault("pricing.high_demand_categories", domain.DefaultHighDemandCategories)
	v.SetDefault("pricing.high_demand.up_pct", hd.UpPct.String())
	v.SetDefault("pricing.high_demand.down_pct", hd.DownPct.String())
	v.SetDefault("pricing.high_demand.decay_step", hd.DecayStep.String())
	v.SetDefault("pricing.high_demand.cold_start_factor", hd.ColdStartFactor.String())
	v.SetDefault("pricing.normal.up_pct", nm.UpPct.String())
	v.SetDefault("pricing.normal.down_pct", nm.DownPct.String())
	v.SetDefault("pricing.normal.decay_step", nm.DecayStep.String())
	v.SetDefault("pricing.normal.cold_start_factor", nm.ColdStartFactor.String())
	v.SetDefault("pricing.default_min_price", bounds.Min.String())
	v.SetDefault("pricing.default_max_price", bounds.Max.String())

	v.SetDefault("predictor.window", 8)
	v.SetDefault("predictor.alpha", "0.55")

	v.SetDefault("shutdown.timeout", "15s")
	v.SetDefault("log.level", "info")
}

// Load reads config.yaml from configPath when present, then applies environment
// overrides such as DYNPRICE_STORAGE_DRIVER or DYNPRICE_DECAY_GRACE.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("DYNPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.HTTP = HTTPConfig{
		Addr:           v.GetString("http.addr"),
		AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
	}
	cfg.GRPC = GRPCConfig{Addr: v.GetString("grpc.addr")}
	cfg.Storage = StorageConfig{
		Driver:          strings.ToLower(v.GetString("storage.driver")),
		SpannerDatabase: v.GetString("spanner.database"),
		PostgresDSN:     v.GetString("postgres.dsn"),
		PostgresMaxConn: v.GetInt32("postgres.max_conns"),
		AutoMigrate:     v.GetBool("storage.auto_migrate"),
	}
	cfg.Decay = DecayConfig{
		Enabled:           v.GetBool("decay.enabled"),
		Interval:          v.GetDuration("decay.interval"),
		Grace:             v.GetDuration("decay.grace"),
		TickTimeout:       v.GetDuration("decay.tick_timeout"),
		PerProductTimeout: v.GetDuration("decay.per_product_timeout"),
	}
	cfg.Shutdown = v.GetDuration("shutdown.timeout")
	cfg.LogLevel = v.GetString("log.level")

	cfg.Pricing.HighDemandCategories = v.GetStringSlice("pricing.high_demand_categories")
	if cfg.Pricing.HighDemand, err = readProfile(v, "pricing.high_demand", domain.HighDemand, true); err != nil {
		return Config{}, err
	}
	if cfg.Pricing.Normal, err = readProfile(v, "pricing.normal", domain.Normal, false); err != nil {
		return Config{}, err
	}
	minPrice, err := domain.ParseMoney(v.GetString("pricing.default_min_price"))
	if err != nil {
		return Config{}, fmt.Errorf("pricing.default_min_price: %w", err)
	}
	maxPrice, err := domain.ParseMoney(v.GetString("pricing.default_max_price"))
	if err != nil {
		return Config{}, fmt.Errorf("pricing.default_max_price: %w", err)
	}
	cfg.Pricing.DefaultBounds = domain.PriceBounds{Min: minPrice, Max: maxPrice}

	alpha, err := decimal.NewFromString(v.GetString("predictor.alpha"))
	if err != nil {
		return Config{}, fmt.Errorf("predictor.alpha: %w", err)
	}
	cfg.Predictor = domain.PredictorConfig{Window: v.GetInt("predictor.window"), Alpha: alpha}

	return cfg, cfg.Validate()
}

func readProfile(v *viper.Viper, prefix string, class domain.DemandClass, risesOnSale bool) (domain.DemandProfile, error) {
	p := domain.DemandProfile{Class: class, RisesOnSale: risesOnSale}
	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"up_pct", &p.UpPct},
		{"down_pct", &p.DownPct},
		{"decay_step", &p.DecayStep},
		{"cold_start_factor", &p.ColdStartFactor},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(v.GetString(prefix + "." + f.key))
		if err != nil {
			return p, fmt.Errorf("%s.%s: %w", prefix, f.key, err)
		}
		*f.dst = d
	}
	return p, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSpanner:
		if c.Storage.SpannerDatabase == "" {
			return errors.New("spanner.database is required for the spanner driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Decay.Interval <= 0 {
		return fmt.Errorf("decay.interval must be positive, got %s", c.Decay.Interval)
	}
	if c.Decay.Grace < 0 {
		return fmt.Errorf("decay.grace must not be negative, got %s", c.Decay.Grace)
	}
	if err := c.Pricing.DefaultBounds.Validate(); err != nil {
		return fmt.Errorf("pricing default bounds: %w", err)
	}
	if _, err := domain.NewPricePredictor(c.Predictor, domain.DefaultDemandCatalog()); err != nil {
		return err
	}
	return nil
}
