package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Logstash LogstashConfig `mapstructure:"logstash"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port         int   `mapstructure:"port"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// AuthConfig is the single accepted client credential.
type AuthConfig struct {
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	MaxClockSkewMs int64  `mapstructure:"max_clock_skew_ms"`
}

type MongoConfig struct {
	URL        string `mapstructure:"url"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// RedisConfig an empty Addr disables the verification cache.
type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	PoolSize       int    `mapstructure:"pool_size"`
	VerifyCacheTTL int    `mapstructure:"verify_cache_ttl"`
}

// SolanaConfig 链上锚定配置
type SolanaConfig struct {
	RPCURL             string `mapstructure:"rpc_url"`
	PrivateKeyJSON     string `mapstructure:"private_key_json"`
	KeypairPath        string `mapstructure:"keypair_path"`
	Required           bool   `mapstructure:"required"`
	VerifyOnRead       bool   `mapstructure:"verify_on_read"`
	RequestTimeout     int    `mapstructure:"request_timeout"`
	ConfirmPollMillis  int    `mapstructure:"confirm_poll_millis"`
	ConfirmMaxAttempts int    `mapstructure:"confirm_max_attempts"`
}

type KafkaConfig struct {
	Brokers []string   `mapstructure:"brokers"`
	Topic   string     `mapstructure:"topic"`
	Sasl    SaslConfig `mapstructure:"sasl"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuditConfig 锚定巡检任务, Cron 为空则不启动
type AuditConfig struct {
	Cron      string `mapstructure:"cron"`
	BatchSize int64  `mapstructure:"batch_size"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}
