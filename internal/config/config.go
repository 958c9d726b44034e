package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	// PostgreSQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBURL      string
	DBCACert   string

	// Redis (routing registry, presence, pub/sub)
	RedisAddr     string
	RedisPassword string

	// HTTP
	Port       string
	HealthAddr string
	Hostname   string // pub/sub channel identity of this process

	// Auth
	JWTSecret string

	// Kafka message archive (optional, enabled when brokers are set)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaCACert  string
	KafkaCert    string // optional client cert
	KafkaKey     string // optional client key

	// Realtime tunables
	RoutingRefreshInterval time.Duration // must stay strictly below RoutingTTL
	RoutingTTL             time.Duration
	PresenceWindow         time.Duration
	HistoryLimit           int
}

func LoadConfig() *Config {
	// Load .env if exists
	_ = godotenv.Load() // ignore error, fallback to env vars

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASS"),
		DBName:     os.Getenv("DB_NAME"),
		DBURL:      os.Getenv("DB_URL"),
		DBCACert:   os.Getenv("DB_CA_CERT"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		Port:       getEnv("PORT", "3000"),
		HealthAddr: getEnv("HEALTH_ADDR", ":8080"),
		Hostname:   os.Getenv("CHAT_HOSTNAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		KafkaTopic:  getEnv("KAFKA_TOPIC", "chat-messages"),
		KafkaCACert: os.Getenv("KAFKA_CA_CERT"),
		KafkaCert:   os.Getenv("KAFKA_CLIENT_CERT"),
		KafkaKey:    os.Getenv("KAFKA_CLIENT_KEY"),

		RoutingRefreshInterval: getDuration("ROUTING_REFRESH_INTERVAL", time.Minute),
		RoutingTTL:             getDuration("ROUTING_TTL", 2*time.Minute),
		PresenceWindow:         getDuration("PRESENCE_WINDOW", 10*time.Second),
		HistoryLimit:           getInt("HISTORY_LIMIT", 100),
	}

	if brokers := os.Getenv("KAFKA_BROKER"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	// Every process needs a distinct inbound pub/sub channel, so the
	// identity defaults to the machine hostname.
	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		cfg.Hostname = hostname
	}

	// Build DB URL if not provided
	if cfg.DBURL == "" {
		sslmode := "disable"
		if cfg.DBCACert != "" {
			sslmode = "verify-full"
		}
		cfg.DBURL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, sslmode,
		)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
