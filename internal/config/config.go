package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Assistant  AssistantConfig
	Retrieval  RetrievalConfig
	FileAPI    FileAPIConfig
	Auth       AuthConfig
	Telemetry  TelemetryConfig
	Escalation EscalationConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	DeskLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ConversationStore  string // "memory" or "redis"
	ConversationTTL    time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// AssistantConfig holds the generation endpoint settings. Endpoint, AgentID and APIKey are the
// persisted settings the orchestrator is constructed with.
type AssistantConfig struct {
	Endpoint       string
	AgentID        string
	APIKey         string
	Provider       string // "gemini", "ollama", "huggingface"
	Model          string
	Temperature    float64
	HistoryWindow  int
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Timeout        time.Duration
}

type RetrievalConfig struct {
	Provider string // "keyword" or "store"
	Latency  time.Duration
	Timeout  time.Duration
	TopK     int
}

type FileAPIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

type AuthConfig struct {
	JWTSecret string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

type EscalationConfig struct {
	Topic       string
	DeskMailbox string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			DeskLogFilePath:    getEnv("DESK_LOG_FILE_PATH", "logs/desk.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			ConversationStore:  strings.ToLower(getEnv("CONVERSATION_STORE", "memory")),
			ConversationTTL:    getEnvAsDuration("CONVERSATION_TTL", time.Hour),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Soporte TI"),
		},
		Assistant: AssistantConfig{
			Endpoint:       getEnv("ASSISTANT_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			AgentID:        getEnv("ASSISTANT_AGENT_ID", ""),
			APIKey:         getEnv("ASSISTANT_API_KEY", ""),
			Provider:       getEnv("LLM_PROVIDER", "gemini"),
			Model:          getEnv("LLM_MODEL", ""),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			HistoryWindow:  getEnvAsInt("ASSISTANT_HISTORY_WINDOW", 6),
			RetryAttempts:  getEnvAsInt("ASSISTANT_RETRY_ATTEMPTS", 2),
			RetryBaseDelay: getEnvAsDuration("ASSISTANT_RETRY_BASE_DELAY", 250*time.Millisecond),
			RetryMaxDelay:  getEnvAsDuration("ASSISTANT_RETRY_MAX_DELAY", 2*time.Second),
			Timeout:        getEnvAsDuration("ASSISTANT_TIMEOUT", 60*time.Second),
		},
		Retrieval: RetrievalConfig{
			Provider: strings.ToLower(getEnv("RETRIEVAL_PROVIDER", "keyword")),
			Latency:  getEnvAsDuration("RETRIEVAL_LATENCY", 400*time.Millisecond),
			Timeout:  getEnvAsDuration("RETRIEVAL_TIMEOUT", 2*time.Second),
			TopK:     getEnvAsInt("RETRIEVAL_TOP_K", 5),
		},
		FileAPI: FileAPIConfig{
			BaseURL:    getEnv("FILE_API_BASE_URL", ""),
			Timeout:    getEnvAsDuration("FILE_API_TIMEOUT", 30*time.Second),
			RetryCount: getEnvAsInt("FILE_API_RETRY_COUNT", 2),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "ai-helpdesk-be"),
		},
		Escalation: EscalationConfig{
			Topic:       getEnv("ESCALATION_TOPIC_NAME", "ESCALATION_REQUESTED"),
			DeskMailbox: getEnv("ESCALATION_MAILBOX", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("250ms", "2s").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
