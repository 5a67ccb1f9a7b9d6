package config

import "time"

const (
	// ServiceName is used for config file names and the env prefix.
	ServiceName = "watchtrack"

	DefaultPostgresPort = 5432

	// Connection pool defaults.
	DefaultMaxConnections  = 25
	DefaultMinConnections  = 5
	DefaultMaxConnLifetime = time.Hour
	DefaultMaxConnIdleTime = 30 * time.Minute

	DefaultNATSURL          = "nats://localhost:4222"
	DefaultNATSStream       = "WATCH_STATUS"
	DefaultNATSSubject      = "watchstatus"
	DefaultNATSReconnect    = 10
	DefaultNATSReconnectGap = 2 * time.Second
	DefaultKafkaTopic       = "watch-status-changes"

	DefaultProfileCacheTTL = 10 * time.Minute

	// Notifier types.
	NotifierNone     = "none"
	NotifierEventBus = "eventbus"
	NotifierNATS     = "nats"
	NotifierKafka    = "kafka"
)
