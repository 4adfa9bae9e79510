package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFile           string `mapstructure:"LOG_FILE"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Document store.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	StoreDriver  string `mapstructure:"STORE_DRIVER"` // "mongo" or "memory"

	// Redis configuration.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int           `mapstructure:"REDIS_QUEUE_DB"`
	SlotCacheTTL  time.Duration `mapstructure:"SLOT_CACHE_TTL"`

	// Call negotiation and provider.
	CallRequestCooldown time.Duration `mapstructure:"CALL_REQUEST_COOLDOWN"`
	VideoSDKAPIKey      string        `mapstructure:"VIDEOSDK_API_KEY"`
	VideoSDKSecret      string        `mapstructure:"VIDEOSDK_SECRET"`
	VideoSDKBaseURL     string        `mapstructure:"VIDEOSDK_BASE_URL"`
	VideoSDKTimeout     time.Duration `mapstructure:"VIDEOSDK_TIMEOUT"`

	// Generative text.
	GeminiAPIKey  string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string        `mapstructure:"GEMINI_MODEL"`
	GeminiTimeout time.Duration `mapstructure:"GEMINI_TIMEOUT"`
	CopyCacheTTL  time.Duration `mapstructure:"COPY_CACHE_TTL"`

	// Push notifications and reminders.
	FirebaseCredentialsFile string        `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	ReminderLeadTime        time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
	Timezone                string        `mapstructure:"TIMEZONE"`
}

var AppConfig Config

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "therapy")
	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 3)
	v.SetDefault("SLOT_CACHE_TTL", "30s")
	v.SetDefault("CALL_REQUEST_COOLDOWN", "5m")
	v.SetDefault("VIDEOSDK_API_KEY", "")
	v.SetDefault("VIDEOSDK_SECRET", "")
	v.SetDefault("VIDEOSDK_BASE_URL", "https://api.videosdk.live")
	v.SetDefault("VIDEOSDK_TIMEOUT", "10s")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_TIMEOUT", "8s")
	v.SetDefault("COPY_CACHE_TTL", "6h")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("REMINDER_LEAD_TIME", "15m")
	v.SetDefault("TIMEZONE", "UTC")
}

// Load reads configuration from v into a Config.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
