package config

import "time"

type Config struct {
	Service     *ServiceConfig
	Redis       *RedisConfig
	Postgres    *PostgresConfig
	Chat        *ChatConfig
	Net         *NetConfig
	Logger      *LoggerConfig
	Tracer      *TracerConfig
	SecretToken string
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

// ChatConfig carries the room budgets: the retained-message window, the
// ephemeral reveal window, and the attachment ceiling enforced at the edge.
type ChatConfig struct {
	RemoteBackend      bool
	WindowSize         int
	EphemeralWindow    time.Duration
	MaxAttachmentBytes int64
}

// NetConfig feeds the network-mode gate. AnonSuffix is the hostname suffix
// that marks an anonymity-network deployment; ForceAnonymized is the test
// override.
type NetConfig struct {
	Host            string
	AnonSuffix      string
	ForceAnonymized bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Endpoint string
}
