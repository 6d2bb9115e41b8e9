package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"call_center_app_go/config"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the remote libSQL store when configured, otherwise to the local SQLite file.
func Open(cfg *config.Config) error {
	if cfg.TursoDatabaseURL != "" {
		return InitializeRemote(cfg.TursoDatabaseURL, cfg.TursoAuthToken, cfg.Environment)
	}
	return Initialize(cfg.DBPath, cfg.Environment)
}

// Initialize sets up the local database connection with WAL mode for concurrency
func Initialize(dbPath string, environment string) error {
	var err error

	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	DB, err = gorm.Open(sqlite.Open(dsn), gormConfig(environment))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (WAL mode enabled)")
	return nil
}

// InitializeRemote connects to a Turso/libSQL database through the libsql driver
func InitializeRemote(url, authToken, environment string) error {
	dsn := url
	if authToken != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		dsn = url + sep + "authToken=" + authToken
	}

	sqlDB, err := sql.Open("libsql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open libsql connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to reach libsql database: %w", err)
	}

	DB, err = gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), gormConfig(environment))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (libSQL remote)")
	return nil
}

func gormConfig(environment string) *gorm.Config {
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
