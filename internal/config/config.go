package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	BucketCrests string
	BucketPhotos string
	UseSSL       bool
	Region       string
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	ResourceSecret  string
	MaxSessions     int
	ReviewTokenTTL  time.Duration
	ReviewURLBase   string
}

type GeocodeConfig struct {
	Endpoint string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type RateBucketConfig struct {
	MaxRequests int
	Window      time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	Backend string // "memory" or "redis"
	Auth    RateBucketConfig
	Forms   RateBucketConfig
	Admin   RateBucketConfig
	Upload  RateBucketConfig
	Public  RateBucketConfig
}

type NotifyConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	MailEndpoint  string
	MailAPIKey    string
	MailFrom      string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Geocode          GeocodeConfig
	RateLimit        RateLimitConfig
	Notify           NotifyConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("PLAYAWAY")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketcrests", "playaway-crests")
	v.SetDefault("storage.bucketphotos", "playaway-photos")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 10)
	v.SetDefault("security.reviewtokenttl", "168h") // 7 days
	v.SetDefault("security.reviewurlbase", "https://playaway.ie/reviews")

	v.SetDefault("geocode.endpoint", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.timeout", "8s")
	v.SetDefault("geocode.cachettl", "720h")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.auth.maxrequests", 10)
	v.SetDefault("ratelimit.auth.window", "60s")
	v.SetDefault("ratelimit.forms.maxrequests", 20)
	v.SetDefault("ratelimit.forms.window", "60s")
	v.SetDefault("ratelimit.admin.maxrequests", 60)
	v.SetDefault("ratelimit.admin.window", "60s")
	v.SetDefault("ratelimit.upload.maxrequests", 5)
	v.SetDefault("ratelimit.upload.window", "60s")
	v.SetDefault("ratelimit.public.maxrequests", 120)
	v.SetDefault("ratelimit.public.window", "60s")

	v.SetDefault("notify.stream", "notify:outbox")
	v.SetDefault("notify.group", "notifiers")
	v.SetDefault("notify.consumer", "worker-1")
	v.SetDefault("notify.claiminterval", "60s")
	v.SetDefault("notify.mailfrom", "noreply@playaway.ie")
}
