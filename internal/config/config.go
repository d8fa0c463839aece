package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/samber/lo"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Surfaces that can be placed behind bearer-token authentication.
const (
	SurfaceUser    = "user"
	SurfaceChat    = "chat"
	SurfaceMessage = "message"
	SurfaceWS      = "ws"
)

type Config struct {
	AppName string `env:"APP_NAME,default=Chat Backend API"`
	Env     string `env:"APP_ENV,default=development"`
	Host    string `env:"HTTP_HOST,default=0.0.0.0"`
	Port    int    `env:"HTTP_PORT,default=8000"`

	DBDriver         string `env:"DB_DRIVER,default=sqlite"`
	SQLitePath       string `env:"SQLITE_PATH,default=chat.db"`
	PostgresHost     string `env:"POSTGRES_HOST,default=localhost"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresUser     string `env:"POSTGRES_USER,default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,default=postgres"`
	PostgresDB       string `env:"POSTGRES_DB,default=chat"`

	JWTSecret          string `env:"JWT_SECRET,required=true"`
	AccessTokenMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES,default=1440"`
	AuthRequired       string `env:"AUTH_REQUIRED"`
	BcryptCost         int    `env:"BCRYPT_COST,default=10"`
	LegacyPasswords    bool   `env:"LEGACY_PLAINTEXT_PASSWORDS,default=true"`
	CORSOrigins        string `env:"CORS_ORIGINS,default=*"`

	AWSRegion       string `env:"AWS_REGION,default=us-east-1"`
	AWSAccessKeyID  string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket        string `env:"AWS_S3_BUCKET_NAME"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE,default=chat-events"`

	BroadcastHTTPMutations bool          `env:"BROADCAST_HTTP_MUTATIONS,default=false"`
	WSSendBuffer           int           `env:"WS_SEND_BUFFER,default=64"`
	RequestTimeout         time.Duration `env:"REQUEST_TIMEOUT,default=60s"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	LogLevel               string        `env:"LOG_LEVEL,default=INFO"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules the struct tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	for _, s := range splitList(c.AuthRequired) {
		if !lo.Contains([]string{SurfaceUser, SurfaceChat, SurfaceMessage, SurfaceWS}, s) {
			return fmt.Errorf("unknown AUTH_REQUIRED surface %q", s)
		}
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%s", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// AuthRequiredFor reports whether bearer tokens are enforced on the surface.
func (c *Config) AuthRequiredFor(surface string) bool {
	return lo.Contains(splitList(c.AuthRequired), surface)
}

func (c *Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	return lo.Compact(lo.Map(parts, func(p string, _ int) string {
		return strings.ToLower(strings.TrimSpace(p))
	}))
}
