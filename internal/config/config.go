package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Ledger   LedgerConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type TelegramConfig struct {
	BotToken  string
	WebAppURL string
}

// LedgerConfig is built once at startup and injected into the ledger
// services. Operator account ids are optional; an empty id means that
// fee leg has no route and the fee is not collected.
type LedgerConfig struct {
	OperatorPrimary    string
	OperatorSecondaryA string
	OperatorSecondaryB string

	SenderFeeRate   float64
	ReceiverFeeRate float64

	ReferralBonusStep int64
}

// IsOperator reports whether id names one of the configured operator accounts.
func (l LedgerConfig) IsOperator(id string) bool {
	if id == "" {
		return false
	}
	return id == l.OperatorPrimary || id == l.OperatorSecondaryA || id == l.OperatorSecondaryB
}

// ReceiverFeeAccount resolves the route for the receiver-side fee:
// secondary-A if configured, falling back to primary.
func (l LedgerConfig) ReceiverFeeAccount() string {
	if l.OperatorSecondaryA != "" {
		return l.OperatorSecondaryA
	}
	return l.OperatorPrimary
}

// SenderFeeAccount resolves the route for the sender-side fee:
// secondary-B if configured, falling back to primary.
func (l LedgerConfig) SenderFeeAccount() string {
	if l.OperatorSecondaryB != "" {
		return l.OperatorSecondaryB
	}
	return l.OperatorPrimary
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	senderFee, _ := strconv.ParseFloat(getEnv("SENDER_FEE_RATE", "0.02"), 64)
	receiverFee, _ := strconv.ParseFloat(getEnv("RECEIVER_FEE_RATE", "0.01"), 64)
	bonusStep, _ := strconv.ParseInt(getEnv("REFERRAL_BONUS_STEP", "1"), 10, 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "tonplaygram"),
			Password: getEnv("DB_PASSWORD", "tonplaygram"),
			Name:     getEnv("DB_NAME", "tonplaygram"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebAppURL: getEnv("TELEGRAM_WEBAPP_URL", ""),
		},
		Ledger: LedgerConfig{
			OperatorPrimary:    getEnv("DEV_ACCOUNT_ID", ""),
			OperatorSecondaryA: getEnv("DEV_ACCOUNT_ID_1", ""),
			OperatorSecondaryB: getEnv("DEV_ACCOUNT_ID_2", ""),
			SenderFeeRate:      senderFee,
			ReceiverFeeRate:    receiverFee,
			ReferralBonusStep:  bonusStep,
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
