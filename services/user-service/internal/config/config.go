// Package config loads the user service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/shared/logger"
	"github.com/vasapolrittideah/platform-api/shared/mailer"
)

// UserServiceConfig holds every setting of the user service. It is parsed once
// in main and passed explicitly to the components that need it.
type UserServiceConfig struct {
	Port       int    `env:"APP_PORT"    envDefault:"5000"`
	AppWebURL  string `env:"APP_WEB_URL" envDefault:"http://localhost:8080"`
	AppAPIURL  string `env:"APP_API_URL" envDefault:"http://localhost:5000"`
	ServerName string `env:"APP_NAME"    envDefault:"user-service"`

	Mongo   MongoConfig   `envPrefix:"MONGO_"`
	Token   TokenConfig   `envPrefix:"JWT_"`
	Mailer  mailer.Config `envPrefix:"SMTP_"`
	Storage StorageConfig `envPrefix:"AVATAR_"`
	Log     logger.Config `envPrefix:"LOG_"`

	// MinPasswordLength applies to every credential set through recovery or password change.
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	// RevealUnknownRecoveryEmail restores the legacy {status:false, message:"user.notFound"}
	// answer for recovery requests on unknown addresses.
	RevealUnknownRecoveryEmail bool `env:"RECOVERY_REVEAL_UNKNOWN_EMAIL" envDefault:"false"`
	// AdminRoleID is the role id whose holders may manage other accounts and
	// groups. When empty nobody is an administrator.
	AdminRoleID string `env:"ADMIN_ROLE_ID"`
}

// MongoConfig configures the document store.
type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"platform"`
	// Transactions requires a replica set or sharded cluster.
	Transactions bool          `env:"TRANSACTIONS"    envDefault:"false"`
	Timeout      time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// TokenConfig configures token signing.
type TokenConfig struct {
	Issuer                 string        `env:"ISSUER"                    envDefault:"platform-api"`
	Audience               string        `env:"AUDIENCE"                  envDefault:"platform-api"`
	AccessTokenSecret      string        `env:"SECRET"`
	AccessTokenExpiresIn   time.Duration `env:"LOGIN_EXPIRED_IN"          envDefault:"24h"`
	RefreshTokenSecret     string        `env:"REFRESH_SECRET"`
	RefreshTokenExpiresIn  time.Duration `env:"REFRESH_EXPIRED_IN"        envDefault:"168h"`
	RecoveryTokenSecret    string        `env:"RECOVERY_SECRET"`
	RecoveryTokenExpiresIn time.Duration `env:"RECOVERY_EXPIRED_IN"       envDefault:"24h"`
}

// StorageConfig configures where avatars are written.
type StorageConfig struct {
	Backend  string `env:"STORAGE"  envDefault:"local"`
	MediaDir string `env:"MEDIA_DIR" envDefault:"media"`
	// BaseURL is the public prefix avatar URLs are built from. Defaults to
	// APP_API_URL + "/media/avatar".
	BaseURL  string `env:"BASE_URL"`
	MaxBytes int64  `env:"MAX_BYTES" envDefault:"5242880"`

	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"        envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
}

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

// Load parses the configuration from the environment and validates it.
func Load() (*UserServiceConfig, error) {
	cfg, err := env.ParseAs[UserServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *UserServiceConfig) applyDefaults() {
	// Older deployments signed every token with a single JWT_SECRET.
	if c.Token.RefreshTokenSecret == "" {
		c.Token.RefreshTokenSecret = c.Token.AccessTokenSecret
	}
	if c.Token.RecoveryTokenSecret == "" {
		c.Token.RecoveryTokenSecret = c.Token.AccessTokenSecret
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = strings.TrimRight(c.AppAPIURL, "/") + "/media/avatar"
	}
}

func (c *UserServiceConfig) validate() error {
	var errs []error

	if c.Token.AccessTokenSecret == "" {
		errs = append(errs, errors.New("missing JWT_SECRET environment variable"))
	}
	if c.MinPasswordLength < 1 {
		errs = append(errs, errors.New("MIN_PASSWORD_LENGTH must be positive"))
	}
	if c.AdminRoleID != "" {
		if _, err := bson.ObjectIDFromHex(c.AdminRoleID); err != nil {
			errs = append(errs, errors.New("ADMIN_ROLE_ID must be a 24 character hex object id"))
		}
	}
	if c.Token.RecoveryTokenExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_RECOVERY_EXPIRED_IN must be positive"))
	}

	switch c.Storage.Backend {
	case StorageBackendLocal:
	case StorageBackendS3:
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("missing AVATAR_S3_BUCKET environment variable"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AVATAR_STORAGE %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}
