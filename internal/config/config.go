package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	State    StateConfig    `mapstructure:"state"`
	App      AppConfig      `mapstructure:"app"`
	Media    MediaConfig    `mapstructure:"media"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "postgres" | "memory"
}

type StateConfig struct {
	Backend string `mapstructure:"backend"` // "redis" | "memory"
}

type AppConfig struct {
	// ViewerBaseURL is the public origin of the card viewer frontend,
	// e.g. "https://papir.cards". Claim/viewer URLs are built from it.
	ViewerBaseURL string `mapstructure:"viewer_base_url"`
	// APIBaseURL is the public origin of this API, used for URLs that
	// point back at it (QR image endpoint).
	APIBaseURL string `mapstructure:"api_base_url"`
	// CreationPolicy selects the deployment variant: "direct" creates
	// active cards on first save, "physical" creates pending cards that
	// must be activated before content saves are accepted.
	CreationPolicy string `mapstructure:"creation_policy"`
	IDLength       int    `mapstructure:"id_length"`
	IDAlphabet     string `mapstructure:"id_alphabet"`
}

type MediaConfig struct {
	RootDir   string `mapstructure:"root_dir"`
	BaseURL   string `mapstructure:"base_url"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
}

type CheckoutConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	SecretKey  string        `mapstructure:"secret_key"`
	SuccessURL string        `mapstructure:"success_url"`
	CancelURL  string        `mapstructure:"cancel_url"`
	Currency   string        `mapstructure:"currency"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	// Templates maps a card template name to its price in minor currency
	// units. Pricing is resolved here, never from the client.
	Templates map[string]int64 `mapstructure:"templates"`
}

type BatchConfig struct {
	DefaultCount int    `mapstructure:"default_count"`
	ManifestDir  string `mapstructure:"manifest_dir"`
	QRCodes      bool   `mapstructure:"qr_codes"`
}

type AdminConfig struct {
	// KeyHash is a bcrypt hash of the admin API key expected in the
	// X-Admin-Key header. Empty disables the admin routes.
	KeyHash string `mapstructure:"key_hash"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml, overlays environment variables, and returns Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override: DATABASE_POSTGRES_HOST -> database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.graceful_shutdown_timeout", 10*time.Second)
	v.SetDefault("store.backend", "postgres")
	v.SetDefault("state.backend", "memory")
	v.SetDefault("app.creation_policy", "direct")
	v.SetDefault("app.id_length", 8)
	v.SetDefault("app.id_alphabet", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	v.SetDefault("media.root_dir", "./data/media")
	v.SetDefault("media.max_size_mb", 25)
	v.SetDefault("checkout.currency", "usd")
	v.SetDefault("checkout.session_ttl", 24*time.Hour)
	v.SetDefault("batch.default_count", 100)
	v.SetDefault("batch.manifest_dir", "./data/batches")
	v.SetDefault("batch.qr_codes", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
