// Package config reads settings from the environment, after an optional .env file.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads .env into the environment. A missing file is not an error.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int key=%s value=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid float key=%s value=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration key=%s value=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

// ParseSolverEndpoints parses "label=url,label=url" into a map.
// Entries without a label or URL are skipped.
func ParseSolverEndpoints(raw string) map[string]string {
	out := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		label, url, ok := strings.Cut(strings.TrimSpace(entry), "=")
		label = strings.TrimSpace(label)
		url = strings.TrimSpace(url)
		if !ok || label == "" || url == "" {
			continue
		}
		out[label] = url
	}
	return out
}
