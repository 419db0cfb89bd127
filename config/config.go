package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" envDefault:"aster-api"`
	Port                          int      `env:"PORT" envDefault:"3005"`
	LogLevel                      string   `env:"LOG_LEVEL" envDefault:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" envDefault:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" envDefault:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" envDefault:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" envDefault:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" envDefault:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" envDefault:"5"`

	// PostgreSQL (transactional source)
	SourceDatabaseHost                string        `env:"SOURCE_DB_HOST" envDefault:"localhost"`
	SourceDatabasePort                string        `env:"SOURCE_DB_PORT" envDefault:"5432"`
	SourceDatabaseUserName            string        `env:"SOURCE_DB_USER_NAME" envDefault:""`
	SourceDatabasePassword            string        `env:"SOURCE_DB_PASSWORD" envDefault:""`
	SourceDatabaseName                string        `env:"SOURCE_DB_NAME" envDefault:"orders"`
	SourceDatabaseSSLMode             string        `env:"SOURCE_DB_SSL_MODE" envDefault:"disable"`
	SourceDatabaseMaxOpenConns        int           `env:"SOURCE_DB_MAX_OPEN_CONNS" envDefault:"25"`
	SourceDatabaseMaxIdleConns        int           `env:"SOURCE_DB_MAX_IDLE_CONNS" envDefault:"10"`
	SourceDatabaseConnMaxLifetime     time.Duration `env:"SOURCE_DB_CONN_MAX_LIFETIME" envDefault:"10s"`
	SourceDatabaseMigrationFolderPath string        `env:"SOURCE_DB_MIGRATION_FOLDER_PATH" envDefault:"db/pg/source"`

	// PostgreSQL (warehouse)
	WarehouseDatabaseHost                string        `env:"WAREHOUSE_DB_HOST" envDefault:"localhost"`
	WarehouseDatabasePort                string        `env:"WAREHOUSE_DB_PORT" envDefault:"5433"`
	WarehouseDatabaseUserName            string        `env:"WAREHOUSE_DB_USER_NAME" envDefault:""`
	WarehouseDatabasePassword            string        `env:"WAREHOUSE_DB_PASSWORD" envDefault:""`
	WarehouseDatabaseName                string        `env:"WAREHOUSE_DB_NAME" envDefault:"warehouse"`
	WarehouseDatabaseSSLMode             string        `env:"WAREHOUSE_DB_SSL_MODE" envDefault:"disable"`
	WarehouseDatabaseMaxOpenConns        int           `env:"WAREHOUSE_DB_MAX_OPEN_CONNS" envDefault:"25"`
	WarehouseDatabaseMaxIdleConns        int           `env:"WAREHOUSE_DB_MAX_IDLE_CONNS" envDefault:"10"`
	WarehouseDatabaseConnMaxLifetime     time.Duration `env:"WAREHOUSE_DB_CONN_MAX_LIFETIME" envDefault:"10s"`
	WarehouseDatabaseMigrationFolderPath string        `env:"WAREHOUSE_DB_MIGRATION_FOLDER_PATH" envDefault:"db/pg/warehouse"`

	// Load cycle
	LoadQueryTimeout time.Duration `env:"LOAD_QUERY_TIMEOUT" envDefault:"30s"`
	LoadLockTTL      time.Duration `env:"LOAD_LOCK_TTL" envDefault:"5m"`
	LoadLockWait     time.Duration `env:"LOAD_LOCK_WAIT" envDefault:"2s"`

	// Redis (load cycle serialization)
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka Producer (load lifecycle events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" envDefault:"load-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" envDefault:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" envDefault:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" envDefault:"snappy"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" envDefault:"grpc"`
	TracingInsecure     bool   `env:"TRACING_INSECURE" envDefault:"true"`
}
