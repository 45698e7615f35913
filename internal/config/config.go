package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	UseMemoryQueue bool
	WorkerCount    int
	IntakeQueueURL string

	// WhatsApp Cloud API
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppBaseURL       string

	// Payment link provider
	PaymentBaseURL       string
	PaymentKeyID         string
	PaymentKeySecret     string
	PaymentWebhookSecret string
	AllowFakePayments    bool

	AdminJWTSecret string

	CaseIDPrefix  string
	DefaultLocale string

	TypingDelay        time.Duration
	EffectMaxAttempts  int
	EffectRetryBackoff time.Duration
	EffectCallTimeout  time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Advocate team notification
	SESFromEmail      string
	SESFromName       string
	SendGridAPIKey    string
	SendGridFromEmail string
	NotifyRecipients  []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		IntakeQueueURL: getEnv("INTAKE_QUEUE_URL", ""),

		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com"),

		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", ""),
		PaymentKeyID:         getEnv("PAYMENT_KEY_ID", ""),
		PaymentKeySecret:     getEnv("PAYMENT_KEY_SECRET", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		AllowFakePayments:    getEnvAsBool("ALLOW_FAKE_PAYMENTS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CaseIDPrefix:  getEnv("CASE_ID_PREFIX", "LC"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		TypingDelay:        getEnvAsDuration("TYPING_DELAY", 2*time.Second),
		EffectMaxAttempts:  getEnvAsInt("EFFECT_MAX_ATTEMPTS", 3),
		EffectRetryBackoff: getEnvAsDuration("EFFECT_RETRY_BACKOFF", 500*time.Millisecond),
		EffectCallTimeout:  getEnvAsDuration("EFFECT_CALL_TIMEOUT", 15*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "NyayaSetu"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		NotifyRecipients:  getEnvAsList("NOTIFY_RECIPIENTS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
