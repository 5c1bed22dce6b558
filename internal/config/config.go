package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DBDSN          string
	LogFile        string
	Seed           bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	KafkaBrokers   []string
	KafkaTopic     string
	CartTTL        time.Duration
	ReaperInterval time.Duration
	OutboxInterval time.Duration
}

// Load reads the process environment. Call godotenv.Load first if a .env
// file should take part.
func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DBDSN:          getEnv("DB_DSN", "freshmart.db"), // sqlite file in project root
		LogFile:        os.Getenv("LOG_FILE"),
		Seed:           getBool("SEED", true),
		RedisAddr:      os.Getenv("REDIS_ADDR"), // empty keeps carts in process memory
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "orders.placed"),
		CartTTL:        getDuration("CART_TTL", 30*time.Minute),
		ReaperInterval: getDuration("REAPER_INTERVAL", time.Minute),
		OutboxInterval: getDuration("OUTBOX_INTERVAL", 2*time.Second),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s REDIS_ADDR=%q KAFKA_BROKERS=%v CART_TTL=%s LOG_FILE=%q",
		cfg.Port, cfg.DBDSN, cfg.RedisAddr, cfg.KafkaBrokers, cfg.CartTTL, cfg.LogFile)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
