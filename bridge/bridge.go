package bridge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
)

// sqliteTimeLayout is how the sqlite driver stores time values.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// Result is the envelope of every bridge response.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

func OK(data interface{}) Result {
	return Result{Success: true, Data: data}
}

func Fail(format string, args ...interface{}) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{Error: &msg}
}

// Statement is one entry of a transaction batch.
type Statement struct {
	SQL    string            `json:"sql"`
	Params []json.RawMessage `json:"params"`
}

type ExecResult struct {
	Changes         int64 `json:"changes"`
	LastInsertRowid int64 `json:"lastInsertRowid"`
}

// Bridge gives the desktop shell raw SQL access to the local database.
type Bridge struct {
	db     *sql.DB
	dbCfg  config.DatabaseConfig
	cfg    config.BridgeConfig
	logCfg config.LoggerConfig
}

func New(db *sql.DB, dbCfg config.DatabaseConfig, cfg config.BridgeConfig, logCfg config.LoggerConfig) *Bridge {
	return &Bridge{db: db, dbCfg: dbCfg, cfg: cfg, logCfg: logCfg}
}

// Query runs a statement and returns every row as a column-name keyed object.
func (b *Bridge) Query(ctx context.Context, query string, params []json.RawMessage) ([]map[string]interface{}, error) {
	args, err := ConvertParams(params)
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, b.db, query, args)
}

func (b *Bridge) Execute(ctx context.Context, query string, params []json.RawMessage) (*ExecResult, error) {
	args, err := ConvertParams(params)
	if err != nil {
		return nil, err
	}
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SQL execute error: %w", err)
	}
	changes, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return &ExecResult{Changes: changes, LastInsertRowid: lastID}, nil
}

// Exec runs a batch of statements without parameters.
func (b *Bridge) Exec(ctx context.Context, script string) error {
	if _, err := b.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("SQL exec error: %w", err)
	}
	return nil
}

// Transaction runs every statement in one transaction. SELECT statements
// yield their rows, anything else yields nil. The first failure rolls the
// whole batch back.
func (b *Bridge) Transaction(ctx context.Context, stmts []Statement) ([]interface{}, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("transaction start error: %w", err)
	}
	results := make([]interface{}, 0, len(stmts))
	for i, stmt := range stmts {
		if strings.TrimSpace(stmt.SQL) == "" {
			tx.Rollback()
			return nil, fmt.Errorf("missing 'sql' in query object %d", i)
		}
		args, err := ConvertParams(stmt.Params)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if IsSelect(stmt.SQL) {
			rows, err := queryRows(ctx, tx, stmt.SQL, args)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			results = append(results, rows)
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL, args...); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("SQL execute error: %w", err)
		}
		results = append(results, nil)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("transaction commit error: %w", err)
	}
	return results, nil
}

func (b *Bridge) DBPath() string { return database.Path(b.dbCfg) }

func (b *Bridge) DBExists() bool { return database.Exists(b.dbCfg) }

func (b *Bridge) Version() string { return b.cfg.AppVersion }

// Platform names the host OS the way the desktop shell expects.
func Platform() string {
	if runtime.GOOS == "darwin" {
		return "macos"
	}
	return runtime.GOOS
}

// AppPath resolves a well-known directory by name.
func (b *Bridge) AppPath(name string) (string, error) {
	dataDir := config.DataDir(b.cfg.DataDir)
	home, _ := os.UserHomeDir()
	userDir := func(sub string) (string, error) {
		if home == "" {
			return "", fmt.Errorf("could not get path %s: home directory unknown", name)
		}
		return filepath.Join(home, sub), nil
	}

	switch name {
	case "appData":
		return dataDir, nil
	case "appConfig":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get path %s: %w", name, err)
		}
		return filepath.Join(dir, "noiddea"), nil
	case "appCache":
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("could not get path %s: %w", name, err)
		}
		return filepath.Join(dir, "noiddea"), nil
	case "appLog":
		if b.logCfg.FilePath != "" {
			return filepath.Dir(b.logCfg.FilePath), nil
		}
		return filepath.Join(dataDir, "logs"), nil
	case "home":
		return userDir("")
	case "desktop":
		return userDir("Desktop")
	case "documents":
		return userDir("Documents")
	case "downloads":
		return userDir("Downloads")
	case "music":
		return userDir("Music")
	case "pictures":
		return userDir("Pictures")
	case "public":
		return userDir("Public")
	case "videos":
		return userDir("Videos")
	case "temp":
		return os.TempDir(), nil
	}
	return "", fmt.Errorf("unknown path name: %s", name)
}

// HashPassword, VerifyPassword and GenerateToken back the auth bridge calls.
// Their results are the objects the desktop shell reads: data.hash,
// data.isValid and data.token.

type HashResult struct {
	Hash string `json:"hash"`
}

type VerifyResult struct {
	IsValid bool `json:"isValid"`
}

type TokenResult struct {
	Token string `json:"token"`
}

func HashPassword(password string) (*HashResult, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hashing error: %w", err)
	}
	return &HashResult{Hash: hash}, nil
}

func VerifyPassword(password, hash string) (*VerifyResult, error) {
	ok, err := auth.VerifyPassword(password, hash)
	if err != nil {
		return nil, fmt.Errorf("password verification error: %w", err)
	}
	return &VerifyResult{IsValid: ok}, nil
}

func GenerateToken(now time.Time) TokenResult {
	return TokenResult{Token: auth.NewOpaqueToken(now)}
}

// IsSelect reports whether a statement produces rows.
func IsSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

// ConvertParams decodes JSON parameters into driver values: integers stay
// int64, other numbers become float64, arrays and objects are bound as their
// JSON text.
func ConvertParams(params []json.RawMessage) ([]interface{}, error) {
	args := make([]interface{}, 0, len(params))
	for i, raw := range params {
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		switch x := v.(type) {
		case nil, bool, string:
			args = append(args, x)
		case json.Number:
			if n, err := x.Int64(); err == nil {
				args = append(args, n)
			} else if f, err := x.Float64(); err == nil {
				args = append(args, f)
			} else {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
		default:
			var compact strings.Builder
			enc := json.NewEncoder(&compact)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(x); err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			args = append(args, strings.TrimSuffix(compact.String(), "\n"))
		}
	}
	return args, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryRows(ctx context.Context, q querier, query string, args []interface{}) ([]map[string]interface{}, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SQL query error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("row parsing error: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			row[name] = ConvertValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row parsing error: %w", err)
	}
	return out, nil
}

// ConvertValue maps a scanned column to its JSON form. Blobs are replaced by
// a size marker.
func ConvertValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return fmt.Sprintf("[BLOB:%d bytes]", len(x))
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format(sqliteTimeLayout)
	case int, int32, int64, float32, float64, string:
		return x
	}
	return fmt.Sprint(v)
}
