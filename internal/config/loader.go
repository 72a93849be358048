package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Переменные окружения, которые перекрывают YAML
const (
	EnvUseProxy       = "BWF_USE_PROXY"
	EnvForceProxy     = "BWF_FORCE_PROXY"
	EnvOutputPath     = "BWF_OUTPUT_PATH"
	EnvLogLevel       = "BWF_LOG_LEVEL"
	EnvScraperAPIKey  = "SCRAPERAPI_KEY"
	EnvScrapingBeeKey = "SCRAPINGBEE_KEY"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	return Parse(file, os.LookupEnv)
}

// Parse YAML поверх Default(), затем окружение, затем проверка
func Parse(r io.Reader, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// ApplyEnv переносит переключатели прокси, путь вывода, уровень логов и ключи
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}

	if v, ok := lookupEnv(EnvUseProxy); ok && strings.TrimSpace(v) != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUseProxy, err)
		}
		c.Proxy.Enabled = b
	}
	if v, ok := lookupEnv(EnvForceProxy); ok && strings.TrimSpace(v) != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvForceProxy, err)
		}
		c.Proxy.Force = b
	}
	if v, ok := lookupEnv(EnvOutputPath); ok && strings.TrimSpace(v) != "" {
		c.Storage.OutputPath = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Observability.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookupEnv(EnvScraperAPIKey); ok {
		c.Proxy.ScraperAPIKey = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv(EnvScrapingBeeKey); ok {
		c.Proxy.ScrapingBeeKey = strings.TrimSpace(v)
	}
	return nil
}

// parseBool понимает ещё yes/no и on/off
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}
