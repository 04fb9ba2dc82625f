package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Table describes one relation for the DAO: its name, integer primary key
// column, and non-key columns in a fixed order.
type Table struct {
	Name    string
	Key     string
	Columns []string
}

// Row is one record keyed by column name. The primary key appears under
// the table's Key column after Insert/Load.
type Row map[string]any

// DAO provides row-level persistence over a Table.
type DAO struct {
	DB    *DB
	Table Table
}

func NewDAO(db *DB, t Table) *DAO {
	return &DAO{DB: db, Table: t}
}

// Insert stores a new row and writes the generated key back into it.
func (d *DAO) Insert(ctx context.Context, row Row) error {
	cols := make([]string, 0, len(d.Table.Columns))
	args := make([]any, 0, len(d.Table.Columns))
	marks := make([]string, 0, len(d.Table.Columns))
	for _, c := range d.Table.Columns {
		cols = append(cols, c)
		args = append(args, row[c])
		marks = append(marks, "?")
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.Table.Name, strings.Join(cols, ", "), strings.Join(marks, ", "),
	)

	if d.DB.Driver() == "postgres" {
		var id int64
		q += " RETURNING " + d.Table.Key
		if err := d.DB.QueryRowContext(ctx, d.DB.rebind(q), args...).Scan(&id); err != nil {
			return fmt.Errorf("insert %s: %w", d.Table.Name, err)
		}
		row[d.Table.Key] = id
		return nil
	}

	res, err := d.DB.ExecRebound(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", d.Table.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: %w", d.Table.Name, err)
	}
	row[d.Table.Key] = id
	return nil
}

// Load fetches one row by key. Missing rows return (nil, nil).
func (d *DAO) Load(ctx context.Context, id int64) (Row, error) {
	q := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s = ?",
		d.Table.Key, strings.Join(d.Table.Columns, ", "), d.Table.Name, d.Table.Key,
	)
	rows, err := d.DB.QueryRebound(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", d.Table.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return d.scan(rows)
}

// Update rewrites a row's non-key columns by key.
func (d *DAO) Update(ctx context.Context, row Row) error {
	id, ok := row[d.Table.Key]
	if !ok {
		return errors.New("update requires the key column")
	}
	sets := make([]string, 0, len(d.Table.Columns))
	args := make([]any, 0, len(d.Table.Columns)+1)
	for _, c := range d.Table.Columns {
		sets = append(sets, c+" = ?")
		args = append(args, row[c])
	}
	args = append(args, id)
	q := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		d.Table.Name, strings.Join(sets, ", "), d.Table.Key,
	)
	if _, err := d.DB.ExecRebound(ctx, q, args...); err != nil {
		return fmt.Errorf("update %s: %w", d.Table.Name, err)
	}
	return nil
}

// Save inserts rows without a key and updates rows with one.
func (d *DAO) Save(ctx context.Context, row Row) error {
	if _, ok := row[d.Table.Key]; ok {
		return d.Update(ctx, row)
	}
	return d.Insert(ctx, row)
}

// Delete removes a row by key.
func (d *DAO) Delete(ctx context.Context, id int64) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", d.Table.Name, d.Table.Key)
	if _, err := d.DB.ExecRebound(ctx, q, id); err != nil {
		return fmt.Errorf("delete %s: %w", d.Table.Name, err)
	}
	return nil
}

// List fetches rows matching an optional '?'-placeholder WHERE clause, in
// key order.
func (d *DAO) List(ctx context.Context, where string, args ...any) ([]Row, error) {
	q := fmt.Sprintf(
		"SELECT %s, %s FROM %s",
		d.Table.Key, strings.Join(d.Table.Columns, ", "), d.Table.Name,
	)
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY " + d.Table.Key

	rows, err := d.DB.QueryRebound(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.Table.Name, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := d.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DAO) scan(rows *sql.Rows) (Row, error) {
	vals := make([]any, len(d.Table.Columns)+1)
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.Table.Name, err)
	}
	row := make(Row, len(vals))
	row[d.Table.Key] = vals[0]
	for i, c := range d.Table.Columns {
		row[c] = vals[i+1]
	}
	return row, nil
}
