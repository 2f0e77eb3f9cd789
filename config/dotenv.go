package config

import "github.com/joho/godotenv"

// loadDotEnv pulls in a local .env when present. Missing files are fine.
func loadDotEnv() {
	_ = godotenv.Load()
}
