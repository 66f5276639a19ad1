package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Redis    *RedisConfig
	Postgres *PostgresConfig
	Tracer   *TracerConfig
	Logger   *LoggerConfig
	Auth     *AuthConfig
	Hub      *HubConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type TracerConfig struct {
	Address string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	Secret  string
	Issuer  string
	Timeout time.Duration
}

type HubConfig struct {
	// AwayAfter is the inactivity window before an identity is demoted to away.
	AwayAfter time.Duration
	// SummaryTTL bounds the lifetime of the cached last-message preview per room.
	SummaryTTL time.Duration
}
