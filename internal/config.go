package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	BadgerDriver = "badger"
	SQLiteDriver = "sqlite"

	LogNotifier     = "log"
	WebhookNotifier = "webhook"
)

// Config is the server configuration, read from the environment and an optional .env file.
type Config struct {
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	StorageDriver        string        `env:"STORAGE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteDSN            string        `env:"SQLITE_DSN,default=./data/altus.db"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=15s"`
	TypingTTL            time.Duration `env:"TYPING_TTL,default=5s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	CharReplacement      string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	RequireMutualFollow  bool          `env:"REQUIRE_MUTUAL_FOLLOW,default=false"`
	Notifier             string        `env:"NOTIFIER,default=log"`
	NotifierWebhookURL   string        `env:"NOTIFIER_WEBHOOK_URL"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	PongWait             time.Duration `env:"PONG_WAIT,default=60s"`
	WriteWait            time.Duration `env:"WRITE_WAIT,default=10s"`
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	switch c.StorageDriver {
	case BadgerDriver, SQLiteDriver:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", BadgerDriver, SQLiteDriver, c.StorageDriver)
	}
	switch c.Notifier {
	case LogNotifier:
	case WebhookNotifier:
		if c.NotifierWebhookURL == "" {
			return fmt.Errorf("NOTIFIER_WEBHOOK_URL is required with NOTIFIER=%s", WebhookNotifier)
		}
	default:
		return fmt.Errorf("NOTIFIER must be %q or %q, got %q", LogNotifier, WebhookNotifier, c.Notifier)
	}
	if c.PongWait <= c.PingInterval {
		return fmt.Errorf("PONG_WAIT (%s) must be longer than PING_INTERVAL (%s)", c.PongWait, c.PingInterval)
	}
	if c.LimitMessages != nil && *c.LimitMessages < 1 {
		return fmt.Errorf("LIMIT_MESSAGES must be at least 1, got %d", *c.LimitMessages)
	}
	if c.BufferSize <= 0 || c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE and CONNECTION_BUFFER_SIZE must be positive")
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
