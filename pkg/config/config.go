package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable the backend reads. Variables
// carry the BOOKSTORE_ prefix directly in their envconfig tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "BOOKSTORE_DB_DSN"
	EnvDBHost = "BOOKSTORE_DB_HOST"
	EnvDBUser = "BOOKSTORE_DB_USER"
	EnvDBName = "BOOKSTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Store         StoreConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BOOKSTORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"BOOKSTORE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"BOOKSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"BOOKSTORE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"BOOKSTORE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKSTORE_DB_DSN"`
	Driver string `envconfig:"BOOKSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKSTORE_DB_USER"`
	LegacyPassword string `envconfig:"BOOKSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOOKSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOOKSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOOKSTORE_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"BOOKSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOKSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOKSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOKSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOKSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOKSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BOOKSTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// StoreConfig carries the storefront business knobs. Amounts are in minor
// currency units; VND has no fractional unit so 1 == 1 dong.
type StoreConfig struct {
	TaxRatePercent        int64         `envconfig:"BOOKSTORE_TAX_RATE_PERCENT" default:"10"`
	FreeShippingThreshold int64         `envconfig:"BOOKSTORE_FREE_SHIPPING_THRESHOLD" default:"299000"`
	ShippingFlatFee       int64         `envconfig:"BOOKSTORE_SHIPPING_FLAT_FEE" default:"30000"`
	MaxQuantityPerItem    int           `envconfig:"BOOKSTORE_MAX_QUANTITY_PER_ITEM" default:"10"`
	GuestCartTTL          time.Duration `envconfig:"BOOKSTORE_GUEST_CART_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKSTORE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	// SQLite only needs a file path; default to an in-tree dev database.
	if db.Driver == DriverSQLite {
		db.DSN = "file:bookstore_dev.db?_pragma=foreign_keys(1)"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
