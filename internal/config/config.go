package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	MediaDir     string
	StaticDir    string
	TemplatesDir string
	LogFile      string
	LogLevel     string
	CookieSecure bool

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	MailWorkers  int
	MailQueue    int
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] %s=%q is not a positive number, using %d", key, v, def)
		return def
	}
	return n
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using process environment")
	}

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		DBDSN:        getenv("DB_DSN", "homeshop.db"), // sqlite file in project root
		MediaDir:     getenv("MEDIA_DIR", "./web/media"),
		StaticDir:    getenv("STATIC_DIR", "./web/static"),
		TemplatesDir: getenv("TEMPLATES_DIR", "./web/templates"),
		LogFile:      getenv("LOG_FILE", "./homeshop.log"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		CookieSecure: getenv("COOKIE_SECURE", "false") == "true",

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "1025"),
		SMTPUser:     getenv("SMTP_USER", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "shop@homeshop.test"),
		MailWorkers:  getint("MAIL_WORKERS", 2),
		MailQueue:    getint("MAIL_QUEUE", 64),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s LOG_LEVEL=%s SMTP_HOST=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.LogLevel, cfg.SMTPHost)
	return cfg
}
