package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	RunModeBot    = "bot"
	RunModeReport = "report"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	RunMode     string `env:"RUN_MODE" envDefault:"report"`
	Portfolio   Portfolio
	Data        Data
	API         API
	Resolve     Resolve
	Redis       Redis
	Cache       Cache
	Jobs        Jobs
	GoogleDrive GoogleDrive
	Telegram    Telegram
	Report      Report
}

type Portfolio struct {
	File string `env:"PORTFOLIO_FILE" envDefault:"portfolio.yaml"`
}

type Data struct {
	RawDir       string `env:"DATA_RAW_DIR" envDefault:"data/raw"`
	ProcessedDir string `env:"DATA_PROCESSED_DIR" envDefault:"data/processed"`
}

type API struct {
	Debug     bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	UserAgent string        `env:"API_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; iSharesPortfolioBot/1.0)"`
	IShares   IShares
}

type IShares struct {
	LinkText string `env:"ISHARES_LINK_TEXT" envDefault:"informazioni dettagliate sulle partecipazioni"`
}

type Resolve struct {
	Concurrency int `env:"RESOLVE_CONCURRENCY" envDefault:"4"`
}

type Redis struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Cache struct {
	ViewsExpiration   time.Duration `env:"CACHE_VIEWS_EXPIRATION" envDefault:"12h"`
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"720h"`
}

type Jobs struct {
	RefreshInterval      time.Duration `env:"REFRESH_JOB_INTERVAL" envDefault:"24h"`
	CleanupDriveInterval time.Duration `env:"CLEANUP_DRIVE_JOB_INTERVAL" envDefault:"6h"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"72h"`
}

type Telegram struct {
	Token      string        `env:"TELEGRAM_TOKEN" envDefault:""`
	UpdTimeout time.Duration `env:"TELEGRAM_UPD_TIMEOUT" envDefault:"10s"`
	ViewRows   int           `env:"TELEGRAM_VIEW_ROWS" envDefault:"15"`
}

type Report struct {
	OutputFile   string `env:"REPORT_OUTPUT_FILE" envDefault:"portfolio_analysis.xlsx"`
	SkipDownload bool   `env:"REPORT_SKIP_DOWNLOAD" envDefault:"true"`
	Publish      bool   `env:"REPORT_PUBLISH" envDefault:"false"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}

func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	return cfg, nil
}
