package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
)

type Config struct {
	Port           string
	Environment    string
	Tag            string
	AllowedOrigins []string
	JWTSecret      string
	RequireAuth    bool
	Redis          RedisConfig

	// Coordinator settings, shared so the headless peer reads the same env.
	ICEServers         []webrtc.ICEServer
	NegotiationTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() *Config {
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		Tag:            getEnv("BUILD_TAG", "dev"),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		RequireAuth:    getEnv("REQUIRE_AUTH", "false") == "true",
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		ICEServers:         parseICEServers(getEnv("ICE_SERVERS", "stun:stun.l.google.com:19302")),
		NegotiationTimeout: getDuration("NEGOTIATION_TIMEOUT", 30*time.Second),
	}
}

// parseICEServers turns a comma-separated URL list into pion ICE server
// entries. TURN entries pick up the shared credentials from the
// environment; STUN entries need none.
func parseICEServers(raw string) []webrtc.ICEServer {
	username := os.Getenv("TURN_USERNAME")
	credential := os.Getenv("TURN_CREDENTIAL")

	var servers []webrtc.ICEServer
	for _, u := range strings.Split(raw, ",") {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		server := webrtc.ICEServer{URLs: []string{u}}
		if strings.HasPrefix(u, "turn:") || strings.HasPrefix(u, "turns:") {
			server.Username = username
			server.Credential = credential
		}
		servers = append(servers, server)
	}
	return servers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
