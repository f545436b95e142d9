package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// envBindings maps config keys to the environment variables the mobile
// deployment already uses.
var envBindings = map[string]string{
	"server.port":             "PORT",
	"auth.max_clock_skew_ms":  "MAX_CLOCK_SKEW_MS",
	"auth.client_id":          "CLIENT_ID",
	"auth.client_secret":      "CLIENT_SECRET",
	"mongo.url":               "MONGODB_URI",
	"mongo.database":          "MONGODB_DATABASE",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"solana.rpc_url":          "SOLANA_RPC_URL",
	"solana.private_key_json": "SOLANA_PRIVATE_KEY_JSON",
	"solana.keypair_path":     "SOLANA_KEYPAIR_PATH",
	"kafka.brokers":           "KAFKA_BROKERS",
	"kafka.topic":             "KAFKA_TOPIC",
	"audit.cron":              "AUDIT_CRON",
	"logstash.address":        "LOGSTASH_ADDRESS",
}

// LoadConfig 读取 .env、configs/config.yaml 与环境变量并填充到 Cfg
func LoadConfig() error {
	cfg, err := Load(viper.New())
	if err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

// Load builds a Config from v. Environment variables win over the config file.
func Load(v *viper.Viper) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	applySolanaFlags(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySolanaFlags reads the two Solana switches as plain strings. When set,
// only "true" turns SOLANA_REQUIRED on and only "false" turns
// SOLANA_VERIFY_ON_READ off.
func applySolanaFlags(v *viper.Viper) {
	if raw, ok := os.LookupEnv("SOLANA_REQUIRED"); ok {
		v.Set("solana.required", raw == "true")
	}
	if raw, ok := os.LookupEnv("SOLANA_VERIFY_ON_READ"); ok {
		v.Set("solana.verify_on_read", raw != "false")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("auth.client_id", "android-app")
	v.SetDefault("auth.client_secret", "dev-client-secret")
	v.SetDefault("auth.max_clock_skew_ms", 5*60*1000)
	v.SetDefault("mongo.database", "attestor")
	v.SetDefault("mongo.collection", "mediasubmissions")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.verify_cache_ttl", 600)
	v.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("solana.keypair_path", defaultKeypairPath())
	v.SetDefault("solana.required", false)
	v.SetDefault("solana.verify_on_read", true)
	v.SetDefault("solana.request_timeout", 30)
	v.SetDefault("solana.confirm_poll_millis", 500)
	v.SetDefault("solana.confirm_max_attempts", 240)
	v.SetDefault("kafka.topic", "media-submissions")
	v.SetDefault("audit.batch_size", 50)
	v.SetDefault("logstash.index", "logstash-attestor")
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "devnet.json")
}

// Validate 检查启动必需项
func (c *Config) Validate() error {
	if c.Mongo.URL == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return errors.New("CLIENT_ID and CLIENT_SECRET must not be empty")
	}
	if c.Auth.MaxClockSkewMs < 0 {
		return errors.New("MAX_CLOCK_SKEW_MS must not be negative")
	}
	return nil
}
