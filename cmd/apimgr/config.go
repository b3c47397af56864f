package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	defaultWindow    = time.Hour
	defaultThreshold = 60
	defaultCachePath = "apimgr-cache.db"
)

type Config struct {
	BaseURL    string
	Method     string
	Endpoint   string
	AuthHeader string
	Window     time.Duration
	Buffer     time.Duration
	Threshold  int
	CachePath  string // "memory" for a non-persistent cache
	Verbose    bool
}

func LoadConfig(args []string) (Config, error) {
	baseURL := envOrDefault("APIMGR_BASE_URL", "")
	authHeader := envOrDefault("APIMGR_AUTH_HEADER", "")
	cachePath := envOrDefault("APIMGR_CACHE_PATH", defaultCachePath)

	window := defaultWindow
	if windowEnv := os.Getenv("APIMGR_WINDOW"); windowEnv != "" {
		parsed, err := time.ParseDuration(windowEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APIMGR_WINDOW: %w", err)
		}
		window = parsed
	}

	flagSet := flag.NewFlagSet("apimgr", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagBase := flagSet.String("base-url", baseURL, "API base URL")
	flagMethod := flagSet.String("method", "GET", "HTTP method")
	flagEndpoint := flagSet.String("endpoint", "", "endpoint path")
	flagAuth := flagSet.String("auth", authHeader, "Authorization header value")
	flagWindow := flagSet.String("window", window.String(), "quota window duration")
	flagBuffer := flagSet.String("buffer", "3s", "window buffer for clock skew")
	flagThreshold := flagSet.Int("threshold", defaultThreshold, "max calls per window")
	flagCache := flagSet.String("cache", cachePath, "sqlite cache path, or 'memory'")
	flagVerbose := flagSet.Bool("v", false, "verbose logging")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	windowParsed, err := time.ParseDuration(*flagWindow)
	if err != nil {
		return Config{}, fmt.Errorf("invalid window: %w", err)
	}
	bufferParsed, err := time.ParseDuration(*flagBuffer)
	if err != nil {
		return Config{}, fmt.Errorf("invalid buffer: %w", err)
	}

	config := Config{
		BaseURL:    strings.TrimSpace(*flagBase),
		Method:     strings.ToUpper(strings.TrimSpace(*flagMethod)),
		Endpoint:   strings.TrimSpace(*flagEndpoint),
		AuthHeader: strings.TrimSpace(*flagAuth),
		Window:     windowParsed,
		Buffer:     bufferParsed,
		Threshold:  *flagThreshold,
		CachePath:  strings.TrimSpace(*flagCache),
		Verbose:    *flagVerbose,
	}

	if config.BaseURL == "" {
		return Config{}, errors.New("base-url cannot be empty (flag or APIMGR_BASE_URL)")
	}
	if config.Endpoint == "" {
		return Config{}, errors.New("endpoint cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
