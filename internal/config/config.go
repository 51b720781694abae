package config

import (
	"os"
	"strings"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultDBPath          = "./data"
	defaultNBPAPIURL       = "https://api.nbp.pl"
	defaultLocalCurrency   = "PLN"
	defaultForeignCurrency = "USD"
	defaultLogLevel        = "INFO"
)

type Config struct {
	HTTPAddr        string
	DBPath          string
	NBPAPIURL       string
	LocalCurrency   string
	ForeignCurrency string
	LogLevel        string
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset.
func Load() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", defaultHTTPAddr),
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		NBPAPIURL:       getEnv("NBP_API_URL", defaultNBPAPIURL),
		LocalCurrency:   strings.ToUpper(getEnv("LOCAL_CURRENCY", defaultLocalCurrency)),
		ForeignCurrency: strings.ToUpper(getEnv("FOREIGN_CURRENCY", defaultForeignCurrency)),
		LogLevel:        strings.ToUpper(getEnv("LOG_LEVEL", defaultLogLevel)),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
