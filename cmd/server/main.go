package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/shamzam/internal/service"
)

var (
	port           int
	dbPath         string
	apiToken       string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("SHAMZAM_DB_PATH", "shamzam.sqlite3"), "Path to SQLite database")
	flag.StringVar(&apiToken, "token", os.Getenv("AUDD_API_TOKEN"), "AudD API token")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	if apiToken == "" {
		log.Fatal("AudD API token required: set -token or AUDD_API_TOKEN")
	}

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	svc, err := service.New(
		service.WithDBPath(dbPath),
		service.WithAPIToken(apiToken),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		AllowedOrigins: origins,
	}

	server := NewServer(svc, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
