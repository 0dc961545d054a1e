package config

import (
	"errors"
	"time"

	"github.com/mfdesk/mfgateway/log"
)

// Default values applied before any file or environment override
const (
	DefaultBrokerURL          = "https://nseinvestuat.nseindia.com/nsemfdesk/api/v2"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultRateLimit          = 5
	DefaultSchemeLimit        = 1000
	DefaultListenAddress      = ":4000"
	DefaultAllowedOrigin      = "http://localhost:3000"
	DefaultMetricsAddress     = ":2112"
	DefaultDatabaseDriver     = "sqlite3"
	DefaultSQLitePath         = "mfgateway.db"
	DefaultMongoDatabaseName  = "mfgateway"
	credentialHexLength       = 32
	environmentPortKey        = "port"
	environmentPortOverrideID = "PORT"
)

var (
	// ErrMissingCredential is returned when any of the broker credentials is
	// absent. The process must not start when this is returned.
	ErrMissingCredential = errors.New("broker credential not set")
	// ErrInvalidCredential is returned when the API key or secret is not a 32
	// character hexadecimal string
	ErrInvalidCredential = errors.New("broker credential malformed")

	errInvalidBrokerURL   = errors.New("broker url must be absolute")
	errInvalidRateLimit   = errors.New("broker rate limit must be positive")
	errUnknownDBDriver    = errors.New("unknown database driver")
	errSchemeDirNotSet    = errors.New("scheme master directory not set")
	errListenAddrNotSet   = errors.New("server listen address not set")
	errMongoURINotSet     = errors.New("mongodb uri not set")
	errPostgresHostNotSet = errors.New("postgres host not set")
)

// Config is the immutable process configuration. It is built once at start
// up and handed to every subsystem.
type Config struct {
	Broker       BrokerConfig       `mapstructure:"broker"`
	SchemeMaster SchemeMasterConfig `mapstructure:"schememaster"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          log.Config         `mapstructure:"log"`
}

// BrokerConfig holds the credential material and transport settings for the
// NSE mutual fund API
type BrokerConfig struct {
	URL                     string        `mapstructure:"url"`
	LoginUserID             string        `mapstructure:"loginUserId"`
	MemberID                string        `mapstructure:"memberId"`
	APIKey                  string        `mapstructure:"apiKey"`
	APISecret               string        `mapstructure:"apiSecret"`
	HTTPTimeout             time.Duration `mapstructure:"httpTimeout"`
	InsecureSkipVerify      bool          `mapstructure:"insecureSkipVerify"`
	RateLimit               float64       `mapstructure:"rateLimit"`
	SimulateWhenUnreachable bool          `mapstructure:"simulateWhenUnreachable"`
}

// SchemeMasterConfig defines where snapshots are kept and how many rows a
// generic parse materialises by default
type SchemeMasterConfig struct {
	Dir          string `mapstructure:"dir"`
	DefaultLimit int    `mapstructure:"defaultLimit"`
}

// ServerConfig defines the REST API server
type ServerConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	AllowedOrigin string `mapstructure:"allowedOrigin"`
	StaticDir     string `mapstructure:"staticDir"`
}

// DatabaseConfig selects and configures the persistence driver
type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"`
	Path    string `mapstructure:"path"`
	Host    string `mapstructure:"host"`
	Port    uint16 `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"sslMode"`
	URI     string `mapstructure:"uri"`
}

// MetricsConfig defines the prometheus endpoint
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listenAddress"`
}
