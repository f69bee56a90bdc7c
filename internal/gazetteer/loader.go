package gazetteer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnsupportedFormat được trả về khi không nhận diện được định dạng file
var ErrUnsupportedFormat = errors.New("gazetteer: unsupported source format")

// LoadCSV đọc bảng có header; ô rỗng được coi là null
func LoadCSV(r io.Reader) (*Gazetteer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc header CSV: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]*string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lỗi đọc CSV: %w", err)
		}
		row := make([]*string, len(rec))
		for i := range rec {
			if rec[i] != "" {
				v := rec[i]
				row[i] = &v
			}
		}
		rows = append(rows, row)
	}
	return FromTable(header, rows)
}

// LoadJSON đọc mảng object {"lv0": ..., "lv1": null, ...}.
// Cột được xác định từ hợp các khóa của mọi object; mảng rỗng là gazetteer rỗng.
func LoadJSON(r io.Reader) (*Gazetteer, error) {
	var objs []map[string]*string
	if err := json.NewDecoder(r).Decode(&objs); err != nil {
		return nil, fmt.Errorf("lỗi decode JSON gazetteer: %w", err)
	}
	if len(objs) == 0 {
		return New(nil), nil
	}

	var columns []string
	seen := make(map[string]bool)
	for _, obj := range objs {
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}

	rows := make([][]*string, len(objs))
	for i, obj := range objs {
		row := make([]*string, len(columns))
		for j, c := range columns {
			row[j] = obj[c]
		}
		rows[i] = row
	}
	return FromTable(columns, rows)
}

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// LoadSQL đọc toàn bộ bảng table từ db (SQLite hoặc PostgreSQL).
// Thứ tự bản ghi là thứ tự driver trả về; nó quyết định tie-break khi matching.
func LoadSQL(ctx context.Context, db *sql.DB, table string) (*Gazetteer, error) {
	if !reIdent.MatchString(table) {
		return nil, fmt.Errorf("tên bảng không hợp lệ: %q", table)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("lỗi query gazetteer: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc cột: %w", err)
	}

	var table2d [][]*string
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("lỗi scan hàng gazetteer: %w", err)
		}
		row := make([]*string, len(columns))
		for i, c := range cells {
			if c.Valid {
				v := c.String
				row[i] = &v
			}
		}
		table2d = append(table2d, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lỗi duyệt hàng gazetteer: %w", err)
	}
	return FromTable(columns, table2d)
}

// LoadFile chọn loader theo phần mở rộng: .csv, .json, .db/.sqlite/.sqlite3 (bảng "address").
func LoadFile(ctx context.Context, path string) (*Gazetteer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadJSON(f)
	case ".db", ".sqlite", ".sqlite3":
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return LoadSQL(ctx, db, DefaultTable)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}
