package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Store    *StoreConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Tracer   *TracerConfig
	Logger   *LoggerConfig
	Auth     *AuthConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

// StoreConfig selects the document-store backend: "postgres" for the
// real adapter (requires redis for change notifications), "memory" for
// the in-process one.
type StoreConfig struct {
	Backend string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
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

type TracerConfig struct {
	Address string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}
