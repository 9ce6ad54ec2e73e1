package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using config file and environment only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("FELLOWSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		log.Warn("Config file not found, falling back to defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// setDefaults 缺省配置，保证无配置文件时也能启动
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("jwt.issuer", "Fellowship")
	v.SetDefault("jwt.expiration_hours", 24)

	v.SetDefault("log.level", "info")

	v.SetDefault("logstash.index", "logstash-fellowship")

	v.SetDefault("kafka.consumer.session_timeout", 30)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 10)
	v.SetDefault("kafka_user_consumer.topic", "church.users")
	v.SetDefault("kafka_user_consumer.group_id", "fellowship-chat-users")

	v.SetDefault("cron.provision_spec", "0 */10 * * * *")

	v.SetDefault("directory.mode", DirectoryModeDB)
	v.SetDefault("directory.timeout", 5)
	v.SetDefault("directory.cache_ttl", 600)

	v.SetDefault("chat.edit_window_seconds", 120)
	v.SetDefault("chat.max_content_length", 5000)
	v.SetDefault("chat.default_page_size", 50)
	v.SetDefault("chat.max_page_size", 100)
	v.SetDefault("chat.max_attachment_size", 20<<20)
}
