package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port string `env:"PORT" env-default:"3009"`

	DB       DB       `env-prefix:"DB_"`
	Redis    Redis    `env-prefix:"REDIS_"`
	Kafka    Kafka    `env-prefix:"KAFKA_"`
	JWT      JWT      `env-prefix:"JWT_"`
	Exchange Exchange `env-prefix:"EXCHANGE_"`
	Gateway  Gateway  `env-prefix:"GATEWAY_"`
	Checkout Checkout `env-prefix:"CHECKOUT_"`
}

type DB struct {
	Host string `env:"HOST" env-default:"localhost"`
	Port string `env:"PORT" env-default:"5432"`
	User string `env:"USER" env-default:"postgres"`
	Pass string `env:"PASS" env-default:"postgres"`
	Name string `env:"NAME" env-default:"checkoutdb"`
}

type Redis struct {
	Addr string `env:"ADDR" env-default:"localhost:6379"`
	Pass string `env:"PASS" env-default:""`
}

type Kafka struct {
	Broker string `env:"BROKER" env-default:"kafka:9092"`
}

type JWT struct {
	Secret string `env:"SECRET" env-default:"supersecret"`
}

type Exchange struct {
	FallbackRate  float64       `env:"FALLBACK_RATE" env-default:"3.75"`
	CacheTTL      time.Duration `env:"CACHE_TTL" env-default:"10m"`
	SourceTimeout time.Duration `env:"SOURCE_TIMEOUT" env-default:"10s"`
}

type Gateway struct {
	ProcessorURL      string `env:"PROCESSOR_URL" env-default:""`
	WalletCheckoutURL string `env:"WALLET_CHECKOUT_URL" env-default:"https://pay.pericraftcampus.com/checkout"`
	ManualPayee       string `env:"MANUAL_PAYEE" env-default:"999 888 777"`
	WebhookSecret     string `env:"WEBHOOK_SECRET" env-default:""`
}

type Checkout struct {
	// Countries allowed to pay with manual-proof wallets (Yape/Plin).
	AllowedCountries []string      `env:"ALLOWED_COUNTRIES" env-default:"peru" env-separator:","`
	LockTTL          time.Duration `env:"LOCK_TTL" env-default:"30s"`
	RetryAttempts    uint          `env:"RETRY_ATTEMPTS" env-default:"5"`
	RetryDelay       time.Duration `env:"RETRY_DELAY" env-default:"200ms"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" env-default:"2s"`
}

func Load() (cfg Config, err error) {
	err = cleanenv.ReadEnv(&cfg)
	return
}

func (d DB) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Pass +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=disable TimeZone=UTC"
}
