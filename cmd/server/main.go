//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/NoteAlign/pkg/notealign"
	"github.com/joho/godotenv"
)

var (
	port           int
	dbPath         string
	datasetRoot    string
	configPath     string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (env: NOTEALIGN_DB_PATH)")
	flag.StringVar(&datasetRoot, "dataset", "", "Dataset root directory (env: NOTEALIGN_DATASET)")
	flag.StringVar(&configPath, "config", "", "TOML configuration file (env: NOTEALIGN_CONFIG)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	var opts []notealign.Option
	if path := flagOrEnv(configPath, "NOTEALIGN_CONFIG"); path != "" {
		fileOpts, err := notealign.LoadConfigFile(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = append(opts, fileOpts...)
	}
	if v := flagOrEnv(dbPath, "NOTEALIGN_DB_PATH"); v != "" {
		opts = append(opts, notealign.WithDBPath(v))
	}
	if v := flagOrEnv(datasetRoot, "NOTEALIGN_DATASET"); v != "" {
		opts = append(opts, notealign.WithDatasetRoot(v))
	}

	cfg := notealign.NewConfig(opts...)
	service, err := notealign.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Port:           port,
		DBPath:         cfg.DBPath,
		DatasetRoot:    cfg.Layout.Root,
		Params:         cfg.Params,
		AllowedOrigins: origins,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// flagOrEnv prefers an explicit flag over the environment.
func flagOrEnv(value, key string) string {
	if value != "" {
		return value
	}
	return getEnvOrDefault(key, "")
}
