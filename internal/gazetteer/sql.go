package gazetteer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DefaultTable là tên bảng gazetteer mặc định trong SQLite/PostgreSQL
const DefaultTable = "address"

// Driver names registered by the imported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenSQLite mở file SQLite ở chế độ WAL
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open gazetteer db: %w", err)
	}
	return db, nil
}

// OpenSQL mở kết nối theo driver ("sqlite" hoặc "postgres") và kiểm tra ping
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = OpenSQLite(dsn)
	case DriverPostgres:
		db, err = sql.Open(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("%w: driver %q", ErrUnsupportedFormat, driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping gazetteer db: %w", err)
	}
	return db, nil
}

// WriteSQL tạo (nếu chưa có) và ghi đè bảng table bằng các bản ghi, trong một transaction.
func WriteSQL(ctx context.Context, db *sql.DB, driver, table string, records []AddressRecord) error {
	if !reIdent.MatchString(table) {
		return fmt.Errorf("tên bảng không hợp lệ: %q", table)
	}

	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		lv0 TEXT NOT NULL,
		lv1 TEXT,
		lv2 TEXT,
		lv3 TEXT,
		lv4 TEXT,
		lv5 TEXT
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(driver, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Lv0, nullable(r.Lv1), nullable(r.Lv2), nullable(r.Lv3), nullable(r.Lv4), nullable(r.Lv5)); err != nil {
			return fmt.Errorf("insert gazetteer row: %w", err)
		}
	}
	return tx.Commit()
}

func insertStatement(driver, table string) string {
	placeholders := make([]string, 6)
	for i := range placeholders {
		if driver == DriverPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return "INSERT INTO " + table + " (lv0, lv1, lv2, lv3, lv4, lv5) VALUES (" + strings.Join(placeholders, ", ") + ")"
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
