package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Password    PasswordConfig
	Sync        SyncConfig
	Maintenance MaintenanceConfig
	Policy      PolicyConfig
	Firestore   FirestoreConfig
	Status      StatusConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensurePath(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MAMACARE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"MAMACARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAMACARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig locates the local cache file. The schema version lives inside the
// file itself (PRAGMA user_version), not alongside it.
type DBConfig struct {
	Dir  string `envconfig:"MAMACARE_DB_DIR" default:"."`
	Name string `envconfig:"MAMACARE_DB_NAME" default:"mamacare_v4.db"`

	Path string `envconfig:"MAMACARE_DB_PATH"`

	BusyTimeout time.Duration `envconfig:"MAMACARE_DB_BUSY_TIMEOUT" default:"5s"`
}

func (d *DBConfig) ensurePath() error {
	if d.Path != "" {
		return nil
	}
	if d.Name == "" {
		return fmt.Errorf("database file name is required")
	}
	d.Path = filepath.Join(d.Dir, d.Name)
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKiB   uint32        `envconfig:"MAMACARE_ARGON_MEMORY_KIB" default:"65536"`
	ArgonTime        uint32        `envconfig:"MAMACARE_ARGON_TIME" default:"3"`
	ArgonParallelism uint8         `envconfig:"MAMACARE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLength  uint32        `envconfig:"MAMACARE_ARGON_SALT_LENGTH" default:"16"`
	ArgonKeyLength   uint32        `envconfig:"MAMACARE_ARGON_KEY_LENGTH" default:"32"`
	ResetTokenExpiry time.Duration `envconfig:"MAMACARE_RESET_TOKEN_EXPIRY" default:"1h"`
	SessionDuration  time.Duration `envconfig:"MAMACARE_SESSION_DURATION" default:"720h"`
}

type SyncConfig struct {
	Interval        time.Duration `envconfig:"MAMACARE_SYNC_INTERVAL" default:"15m"`
	UsersCollection string        `envconfig:"MAMACARE_SYNC_USERS_COLLECTION" default:"users"`
}

type MaintenanceConfig struct {
	Interval                  time.Duration `envconfig:"MAMACARE_MAINTENANCE_INTERVAL" default:"24h"`
	NotificationRetentionDays int           `envconfig:"MAMACARE_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

// PolicyConfig carries product-owned tuning values. The defaults mirror
// constants inherited from the legacy app and are pending product sign-off.
type PolicyConfig struct {
	RecentWatchWindow time.Duration `envconfig:"MAMACARE_POLICY_RECENT_WATCH_WINDOW" default:"720h"`
	NurseCapacity     int           `envconfig:"MAMACARE_POLICY_NURSE_CAPACITY" default:"5"`
	RebuildThreshold  int           `envconfig:"MAMACARE_POLICY_SEARCH_REBUILD_THRESHOLD" default:"50"`
}

type FirestoreConfig struct {
	ProjectID       string `envconfig:"MAMACARE_FIRESTORE_PROJECT_ID"`
	CredentialsFile string `envconfig:"MAMACARE_FIRESTORE_CREDENTIALS_FILE"`
}

func (f FirestoreConfig) Enabled() bool {
	return f.ProjectID != ""
}

// StatusConfig controls the local diagnostics listener.
type StatusConfig struct {
	Enabled bool   `envconfig:"MAMACARE_STATUS_ENABLED" default:"true"`
	Addr    string `envconfig:"MAMACARE_STATUS_ADDR" default:"127.0.0.1:7632"`
}
