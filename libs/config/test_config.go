package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultTestDSN is used by integration tests when no TEST_DB_* variables are set
const DefaultTestDSN = "root:password@tcp(localhost:3306)/hospitalcms_test?parseTime=true&charset=utf8mb4"

// LoadTestConfig loads the configuration for integration tests from TEST_DB_* variables.
// When they are not set it returns a Config with an empty database host so tests can fall back to DefaultTestDSN.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	// Try loading from project root
	_ = godotenv.Load("../../../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Logging.Level = "debug"

	dbHost := os.Getenv("TEST_DB_HOST")
	dbPortStr := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")
	if dbHost == "" || dbPortStr == "" || dbUser == "" || dbName == "" {
		// Return empty config to allow fallback DSN in tests
		return cfg, nil
	}

	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database = DatabaseConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
	}
	return cfg, nil
}

// TestDSN returns the DSN of the test database, falling back to DefaultTestDSN
func (c *Config) TestDSN() string {
	if c.Database.Host == "" {
		return DefaultTestDSN
	}
	return c.DSN()
}
