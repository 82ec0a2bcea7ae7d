// Package config loads application configuration from environment
// variables.  A local .env file is honoured in development via godotenv;
// real deployments set the variables directly.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
	Env                  string        // application environment (e.g. "dev", "prod")
	Port                 string        // HTTP port to listen on
	DBUser               string        // database username
	DBPass               string        // database password (optional)
	DBHost               string        // database host address
	DBPort               string        // database port number
	DBName               string        // database name
	JWTSecret            string        // secret used to sign JWTs
	AccessTTLMin         int           // access token time-to-live in minutes
	RefreshTTLDays       int           // refresh token time-to-live in days
	BcryptCost           int           // bcrypt cost for password hashing
	FrontendURL          string        // base URL for checkout success/cancel redirects
	StripeKey            string        // secret key for the hosted checkout provider
	CheckoutTTL          time.Duration // window before a pending online checkout counts as abandoned
	RestockOnStaffCancel bool          // whether a staff-driven cancel credits stock back
}

// Load reads configuration values from the environment.  A .env file in
// the working directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:                  envStr("APP_ENV", "dev"),
		Port:                 envStr("APP_PORT", "4000"),
		DBUser:               must("DB_USER"),
		DBPass:               os.Getenv("DB_PASS"),
		DBHost:               must("DB_HOST"),
		DBPort:               must("DB_PORT"),
		DBName:               must("DB_NAME"),
		JWTSecret:            must("JWT_SECRET"),
		AccessTTLMin:         envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:       envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:           envInt("BCRYPT_COST", 10),
		FrontendURL:          envStr("FRONTEND_URL", "http://localhost:5173"),
		StripeKey:            os.Getenv("STRIPE_SECRET_KEY"),
		CheckoutTTL:          time.Duration(envInt("CHECKOUT_TTL_MIN", 30)) * time.Minute,
		RestockOnStaffCancel: envBool("RESTOCK_ON_STAFF_CANCEL", false),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
