package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MercadoPagoConfig struct {
	BaseURL     string
	AccessToken string
	UserID      string
	POS         string
	CallbackURL string
	WebhookKey  string
	Timeout     time.Duration
}

type Config struct {
	HTTPPort int

	DBConfig       DBConfig
	MigrationsPath string

	KafkaBrokerURL          string
	KafkaOrderEventsTopic   string
	KafkaPaymentClosedTopic string
	KafkaConsumerGroup      string

	MercadoPago MercadoPagoConfig
}

func LoadConfig() (*Config, error) {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.HTTPPort = getEnvAsInt("PAYMENTS_HTTP_PORT", 8082)

	cfg.DBConfig.Host = getEnvOrDefault("PAYMENTS_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("PAYMENTS_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("PAYMENTS_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("PAYMENTS_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("PAYMENTS_DB_NAME", "payments_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("PAYMENTS_DB_SSLMODE", "disable")
	cfg.MigrationsPath = getEnvOrDefault("PAYMENTS_MIGRATIONS_PATH", "file://migrations")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaOrderEventsTopic = getEnvOrDefault("KAFKA_ORDER_EVENTS_TOPIC", "order_created")
	cfg.KafkaPaymentClosedTopic = getEnvOrDefault("KAFKA_PAYMENT_CLOSED_TOPIC", "payment_closed")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "payments-order-events-group")

	cfg.MercadoPago.BaseURL = getEnvOrDefault("MERCADO_PAGO_BASE_URL", "https://api.mercadopago.com")
	cfg.MercadoPago.AccessToken = getEnvOrDefault("MERCADO_PAGO_ACCESS_TOKEN", "")
	cfg.MercadoPago.UserID = getEnvOrDefault("MERCADO_PAGO_USER_ID", "")
	cfg.MercadoPago.POS = getEnvOrDefault("MERCADO_PAGO_POS", "")
	cfg.MercadoPago.CallbackURL = getEnvOrDefault("MERCADO_PAGO_CALLBACK_URL", "")
	cfg.MercadoPago.WebhookKey = getEnvOrDefault("MERCADO_PAGO_WEBHOOK_KEY", "")
	cfg.MercadoPago.Timeout = getEnvAsDuration("MERCADO_PAGO_TIMEOUT", 10*time.Second)

	return cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
