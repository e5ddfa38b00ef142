package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

// DB is the process-wide handle used by the HTTP controllers.
var DB *gorm.DB

// all models in dependency order; Reset drops them in reverse.
var tables = []interface{}{
	&models.Business{},
	&models.Branch{},
	&models.User{},
	&models.Category{},
	&models.Product{},
	&models.StockMovement{},
	&models.UserSession{},
	&models.Sale{},
	&models.SaleItem{},
	&models.Supplier{},
	&models.Purchase{},
	&models.PurchaseItem{},
}

func init() {
	// timestamps are compared as text by sqlite, keep them all in one zone
	gorm.NowFunc = func() time.Time { return time.Now().UTC() }
}

// ConnectDatabase opens the configured database, migrates it and stores the
// handle in DB.
func ConnectDatabase(cfg config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return err
	}
	DB = db
	return nil
}

// Open connects to the database described by cfg without migrating it.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "", "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = gorm.Open("postgres", fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.Password, sslMode(cfg.SSLMode)))
	case "mysql":
		db, err = gorm.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName))
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if cfg.Debug {
		db = db.Debug()
	}
	return db, nil
}

func openSQLite(cfg config.DatabaseConfig) (*gorm.DB, error) {
	memory := isMemory(cfg.Path)
	if !memory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("could not create app data directory: %w", err)
		}
	}

	db, err := gorm.Open("sqlite3", sqliteDSN(cfg, memory))
	if err != nil {
		return nil, err
	}
	if memory {
		// every new connection to :memory: is a new, empty database
		db.DB().SetMaxOpenConns(1)
	}

	if cfg.WAL && !memory {
		var mode string
		if err := db.DB().QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not set WAL mode: %w", err)
		}
		if !strings.EqualFold(mode, "wal") {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode, got: %s", mode)
		}
	}
	return db, nil
}

// sqliteDSN carries the pragmas as driver parameters; the driver applies
// them to every pooled connection it opens.
func sqliteDSN(cfg config.DatabaseConfig, memory bool) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	if cfg.CacheSize != 0 {
		params.Set("_cache_size", strconv.Itoa(cfg.CacheSize))
	}
	if cfg.WAL && !memory {
		params.Set("_journal_mode", "WAL")
	}
	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	return cfg.Path + sep + params.Encode()
}

// Migrate creates or updates every table and the composite indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(tables...).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{&models.UserSession{}, "idx_session_user_open", []string{"user_id", "closed_at"}},
		{&models.Purchase{}, "idx_purchase_due", []string{"status", "auto_receive", "expected_at"}},
		{&models.Sale{}, "idx_sale_business_sold", []string{"business_id", "sold_at"}},
	}
	for _, idx := range indexes {
		if err := db.Model(idx.model).AddIndex(idx.name, idx.columns...).Error; err != nil {
			return fmt.Errorf("index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Reset drops every table and migrates again.
func Reset(db *gorm.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.DropTableIfExists(tables[i]).Error; err != nil {
			return fmt.Errorf("drop: %w", err)
		}
	}
	return Migrate(db)
}

// Path is the on-disk location of the SQLite database.
func Path(cfg config.DatabaseConfig) string {
	if cfg.Type != "" && cfg.Type != "sqlite" {
		return ""
	}
	if isMemory(cfg.Path) {
		return cfg.Path
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return cfg.Path
	}
	return abs
}

// Exists reports whether the SQLite database file is present.
func Exists(cfg config.DatabaseConfig) bool {
	p := Path(cfg)
	if p == "" || isMemory(p) {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

func sslMode(mode string) string {
	if mode == "" {
		return "disable"
	}
	return mode
}
