package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/food-orders/internal/domain/order"
	"github.com/xenking/food-orders/internal/remote"
	"github.com/xenking/food-orders/internal/storage/postgres"
)

const defaultAddr = "0.0.0.0:8080"

// OrderConfig configures the order server. Loadable from environment
// variables (ORDER_ prefix), flags, or YAML config files.
type OrderConfig struct {
	Addr              string `default:"0.0.0.0:8080" usage:"Order server listen address"`
	PrimaryURL        string `usage:"Read-write PostgreSQL URL (ORDER_PRIMARY_URL or DATABASE_URL)" flag:"primary-url"`
	ReplicaURL        string `usage:"Read-only PostgreSQL replica URL; empty sends reads to the primary" flag:"replica-url"`
	CompensateOrphans bool   `default:"false" usage:"Delete the order header when its line items cannot be written" flag:"compensate-orphans"`
	SubjectHeader     string `default:"X-Auth-Subject" usage:"Trusted header carrying the authenticated username"`
	Pool              postgres.PoolConfig
	Catalog           remote.Config
	Identity          remote.Config
	Enrich            EnrichConfig
	Redis             RedisConfig
	Graceful          GracefulConfig
}

// AccountConfig configures the account server. Loadable from environment
// variables (ACCOUNT_ prefix), flags, or YAML config files.
type AccountConfig struct {
	Addr          string `default:"0.0.0.0:8080" usage:"Account server listen address"`
	SubjectHeader string `default:"X-Auth-Subject" usage:"Trusted header carrying the authenticated username"`
	Orders        remote.Config
	Catalog       remote.Config
	Identity      remote.Config
	Enrich        EnrichConfig
	Redis         RedisConfig
	Graceful      GracefulConfig
}

// EnrichConfig bounds the catalog fan-out of order listings.
type EnrichConfig struct {
	Concurrency   int           `default:"8"  usage:"Maximum concurrent catalog lookups per listing"`
	LookupTimeout time.Duration `default:"1s" usage:"Timeout of one catalog lookup during a listing"`
}

func (c EnrichConfig) domain() order.EnrichConfig {
	return order.EnrichConfig{Concurrency: c.Concurrency, LookupTimeout: c.LookupTimeout}
}

// RedisConfig enables the username to user id cache when Addr is set.
type RedisConfig struct {
	Addr        string        `default:"" usage:"Redis address; empty disables the identity cache"`
	IdentityTTL time.Duration `default:"10m" usage:"Lifetime of a cached username to user id mapping" flag:"identity-ttl"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadOrderConfig loads the order server configuration.
func LoadOrderConfig() (*OrderConfig, error) {
	var cfg OrderConfig
	if err := load(&cfg, "ORDER", "order.yaml"); err != nil {
		return nil, err
	}
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = os.Getenv("DATABASE_URL")
	}
	cfg.Addr = platformAddr(cfg.Addr)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *OrderConfig) validate() error {
	switch {
	case c.PrimaryURL == "":
		return errors.New("primary database URL is required: set ORDER_PRIMARY_URL or DATABASE_URL")
	case c.Catalog.BaseURL == "":
		return errors.New("catalog base URL is required: set ORDER_CATALOG_BASE_URL")
	case c.Identity.BaseURL == "":
		return errors.New("identity base URL is required: set ORDER_IDENTITY_BASE_URL")
	}
	return nil
}

// LoadAccountConfig loads the account server configuration.
func LoadAccountConfig() (*AccountConfig, error) {
	var cfg AccountConfig
	if err := load(&cfg, "ACCOUNT", "account.yaml"); err != nil {
		return nil, err
	}
	cfg.Addr = platformAddr(cfg.Addr)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AccountConfig) validate() error {
	switch {
	case c.Orders.BaseURL == "":
		return errors.New("order service base URL is required: set ACCOUNT_ORDERS_BASE_URL")
	case c.Catalog.BaseURL == "":
		return errors.New("catalog base URL is required: set ACCOUNT_CATALOG_BASE_URL")
	case c.Identity.BaseURL == "":
		return errors.New("identity base URL is required: set ACCOUNT_IDENTITY_BASE_URL")
	}
	return nil
}

func load(dst any, prefix, file string) error {
	loader := aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix: prefix,
		Files:     []string{"config.yaml", "/etc/food-orders/" + file},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}

// platformAddr honours the PORT variable set by hosting platforms unless the
// listen address was configured explicitly.
func platformAddr(addr string) string {
	if port := os.Getenv("PORT"); port != "" && addr == defaultAddr {
		return "0.0.0.0:" + port
	}
	return addr
}
