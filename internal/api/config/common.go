package config

const (
	DirectoryModeDB   = "db"
	DirectoryModeHTTP = "http"
)

// Config 配置主体
type Config struct {
	Server            ServerConfig      `mapstructure:"server"`
	DB                DBConfig          `mapstructure:"database"`
	Redis             RedisConfig       `mapstructure:"redis"`
	JWT               JWTConfig         `mapstructure:"jwt"`
	Log               LogConfig         `mapstructure:"log"`
	Logstash          LogstashConfig    `mapstructure:"logstash"`
	MinIO             MinIOConfig       `mapstructure:"minio"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
	KafkaUserConsumer KafkaUserConsumer `mapstructure:"kafka_user_consumer"`
	Cron              CronConfig        `mapstructure:"cron"`
	Directory         DirectoryConfig   `mapstructure:"directory"`
	Chat              ChatConfig        `mapstructure:"chat"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// JWTConfig 与认证服务共享的签名配置
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	Issuer          string `mapstructure:"issuer"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// LogConfig 本地日志级别与远端上报级别
type LogConfig struct {
	Level       string `mapstructure:"level"`        // debug | info | warn | error
	RemoteLevel string `mapstructure:"remote_level"` // 为空时同 Level
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	PublicHost string `mapstructure:"public_host"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	Bucket     string `mapstructure:"bucket"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Version  string         `mapstructure:"version"` // 如 3.6.0，为空用 sarama 默认
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaUserConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// CronConfig 定时任务
type CronConfig struct {
	ProvisionSpec string `mapstructure:"provision_spec"`
}

// DirectoryConfig 成员目录来源
type DirectoryConfig struct {
	Mode     string `mapstructure:"mode"` // db | http
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	Timeout  int    `mapstructure:"timeout"`   // 秒
	CacheTTL int    `mapstructure:"cache_ttl"` // 秒
}

// ChatConfig 聊天业务参数
type ChatConfig struct {
	EditWindowSeconds int   `mapstructure:"edit_window_seconds"`
	MaxContentLength  int   `mapstructure:"max_content_length"`
	DefaultPageSize   int   `mapstructure:"default_page_size"`
	MaxPageSize       int   `mapstructure:"max_page_size"`
	MaxAttachmentSize int64 `mapstructure:"max_attachment_size"`
}
