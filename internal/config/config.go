package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env  string `mapstructure:"env"`
		Port string `mapstructure:"port"`
	} `mapstructure:"app"`
	API struct {
		BaseURL             string        `mapstructure:"base_url"`
		Timeout             time.Duration `mapstructure:"timeout"`
		DefaultSubscription string        `mapstructure:"default_subscription"`
	} `mapstructure:"api"`
	Sync struct {
		// "request" drops responses overtaken by a later-started sync of the
		// same field; "response" lets whichever response lands last win.
		Ordering string `mapstructure:"ordering"`
	} `mapstructure:"sync"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
		ServiceName  string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

// LoadConfig reads .env and config.yaml from the given directories (the
// working directory when none are given), then applies environment overrides.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	v := viper.New()

	for _, p := range paths {
		if err := godotenv.Load(filepath.Join(p, ".env")); err == nil {
			break
		}
	}

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
		err = nil
	}

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8088")
	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.default_subscription", "free")
	v.SetDefault("sync.ordering", "request")
	v.SetDefault("redis.key_prefix", "provenpro")
	v.SetDefault("kafka.topic", "profile.events")
	v.SetDefault("kafka.group_id", "profile-history-group")
	v.SetDefault("tracing.service_name", "provenpro-companion")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("api.base_url", "PROFILE_API_URL")
	v.BindEnv("api.timeout", "PROFILE_API_TIMEOUT")
	v.BindEnv("api.default_subscription", "DEFAULT_SUBSCRIPTION")
	v.BindEnv("sync.ordering", "SYNC_ORDERING")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("tracing.otlp_endpoint", "OTLP_ENDPOINT")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}

	// KAFKA_BROKERS arrives as one comma separated string.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	return
}
