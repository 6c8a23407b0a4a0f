package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppVersion is reported by the get_app_version command
const AppVersion = "1.0.0"

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Library  LibraryConfig
	Dialog   DialogConfig
	Backup   BackupConfig
	Cron     CronConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql | postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// LibraryConfig holds the fallback loan rules used when the settings table
// has no value for a key.
type LibraryConfig struct {
	FinePerDay     int64
	LoanDays       int
	MaxActiveLoans int
}

// DialogConfig controls the alert/confirm coordinator
type DialogConfig struct {
	// Timeout bounds how long a workflow waits for an answer. Zero waits forever.
	Timeout      time.Duration
	ReportErrors bool
}

// BackupConfig holds the backup directory
type BackupConfig struct {
	Dir string
}

// CronConfig holds the schedules of background jobs
type CronConfig struct {
	OverdueSpec      string
	TokenCleanupSpec string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	dbCfg := loadDatabaseConfig(appMode)
	if dbCfg.Driver != "mysql" && dbCfg.Driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", dbCfg.Driver)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: dbCfg,
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Library:  loadLibraryConfig(),
		Dialog:   loadDialogConfig(),
		Backup:   BackupConfig{Dir: getEnv("BACKUP_DIR", "./backups")},
		Cron: CronConfig{
			OverdueSpec:      getEnv("CRON_OVERDUE_SPEC", "30 8 * * *"),
			TokenCleanupSpec: getEnv("CRON_TOKEN_CLEANUP_SPEC", "0 3 * * *"),
		},
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, dbCfg.Driver)
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "pustaka_desk"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadLibraryConfig() LibraryConfig {
	fine, err := strconv.ParseInt(getEnv("FINE_PER_DAY", "1000"), 10, 64)
	if err != nil || fine < 0 {
		fine = 1000
	}

	return LibraryConfig{
		FinePerDay:     fine,
		LoanDays:       getEnvInt("LOAN_DAYS", 7),
		MaxActiveLoans: getEnvInt("MAX_ACTIVE_LOANS", 3),
	}
}

func loadDialogConfig() DialogConfig {
	report, _ := strconv.ParseBool(getEnv("DIALOG_REPORT_ERRORS", "false"))
	timeout, err := time.ParseDuration(getEnv("DIALOG_TIMEOUT", "0s"))
	if err != nil {
		log.Printf("⚠️ Invalid DIALOG_TIMEOUT, waiting without limit: %v", err)
		timeout = 0
	}

	return DialogConfig{
		Timeout:      timeout,
		ReportErrors: report,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// the desktop shell talks to the backend from its own webview origin
		return "tauri://localhost"
	}
	return origins
}
