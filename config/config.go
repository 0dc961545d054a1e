package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/mfdesk/mfgateway/log"
	"github.com/spf13/viper"
)

// environment variables that carry credential material and deployment
// overrides, keyed by configuration path
var envBindings = map[string]string{
	"broker.loginUserId": "LOGIN_USER_ID",
	"broker.memberId":    "MEMBER_CODE",
	"broker.apiKey":      "API_KEY_MEMBER",
	"broker.apiSecret":   "API_SECRET_USER",
	"database.uri":       "MONGODB_URI",
	environmentPortKey:   environmentPortOverrideID,
}

// Load reads the optional configuration file at path, layers environment
// variables on top and validates the result. A configuration error is
// returned for any missing or malformed credential.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	v.SetEnvPrefix("MFGATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Infof(log.ConfigMgr, "Using config file %s", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if port := v.GetString(environmentPortKey); port != "" {
		c.Server.ListenAddress = ":" + strings.TrimPrefix(port, ":")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.url", DefaultBrokerURL)
	v.SetDefault("broker.httpTimeout", DefaultHTTPTimeout)
	v.SetDefault("broker.insecureSkipVerify", true)
	v.SetDefault("broker.rateLimit", DefaultRateLimit)
	v.SetDefault("broker.simulateWhenUnreachable", true)
	v.SetDefault("schememaster.dir", ".")
	v.SetDefault("schememaster.defaultLimit", DefaultSchemeLimit)
	v.SetDefault("server.listenAddress", DefaultListenAddress)
	v.SetDefault("server.allowedOrigin", DefaultAllowedOrigin)
	v.SetDefault("database.driver", DefaultDatabaseDriver)
	v.SetDefault("database.path", DefaultSQLitePath)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listenAddress", DefaultMetricsAddress)
	v.SetDefault("log.level", "info")
}

// Validate checks the configuration for anything that would stop the gateway
// from authenticating against the broker or serving requests
func (c *Config) Validate() error {
	if err := c.Broker.Validate(); err != nil {
		return err
	}
	if c.SchemeMaster.Dir == "" {
		return errSchemeDirNotSet
	}
	if c.SchemeMaster.DefaultLimit <= 0 {
		c.SchemeMaster.DefaultLimit = DefaultSchemeLimit
	}
	if c.Server.ListenAddress == "" {
		return errListenAddrNotSet
	}
	return c.Database.Validate()
}

// Validate checks the credential material and transport settings
func (b *BrokerConfig) Validate() error {
	required := []struct {
		name, value string
	}{
		{"loginUserId", b.LoginUserID},
		{"memberId", b.MemberID},
		{"apiKey", b.APIKey},
		{"apiSecret", b.APISecret},
	}
	for i := range required {
		if required[i].value == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, required[i].name)
		}
	}
	if !isHexCredential(b.APIKey) {
		return fmt.Errorf("%w: apiKey must be %d hex characters", ErrInvalidCredential, credentialHexLength)
	}
	if !isHexCredential(b.APISecret) {
		return fmt.Errorf("%w: apiSecret must be %d hex characters", ErrInvalidCredential, credentialHexLength)
	}
	u, err := url.Parse(b.URL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: %q", errInvalidBrokerURL, b.URL)
	}
	if b.RateLimit <= 0 {
		return errInvalidRateLimit
	}
	return nil
}

// Validate checks that the selected driver has what it needs to connect
func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case "none", "sqlite3":
	case "postgres":
		if d.Host == "" {
			return errPostgresHostNotSet
		}
	case "mongodb":
		if d.URI == "" {
			return errMongoURINotSet
		}
		if d.Name == "" {
			d.Name = DefaultMongoDatabaseName
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownDBDriver, d.Driver)
	}
	return nil
}

func isHexCredential(s string) bool {
	if len(s) != credentialHexLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
