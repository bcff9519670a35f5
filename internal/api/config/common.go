package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Presence PresenceConfig `mapstructure:"presence"`
	WS       WSConfig       `mapstructure:"ws"`
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

// MongoConfig Mongo配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// PresenceConfig 在线状态配置
type PresenceConfig struct {
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// WSConfig Websocket 配置
type WSConfig struct {
	SendBuffer      int `mapstructure:"send_buffer"`
	CoalesceWindow  int `mapstructure:"coalesce_window_ms"`
	MaxMessageBytes int `mapstructure:"max_message_bytes"`
}
