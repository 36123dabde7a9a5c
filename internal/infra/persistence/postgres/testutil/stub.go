// Package testutil provides a stub database for postgres store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StubConn keeps tables in memory and records every executed statement. It
// understands the single-table statements the document store issues: INSERT
// (with ON CONFLICT on the first column), DELETE and SELECT with a `col = $N`
// or `col LIKE $N` predicate and an optional ORDER BY.
type StubConn struct {
	Execs      []string
	Tables     map[string][]map[string]any
	FailExec   bool
	FailBegin  bool
	RowsErr    error
	FailTables map[string]bool
	FailCommit bool
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailExec {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	up := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(up, "TRUNCATE TABLE"):
		c.Tables = make(map[string][]map[string]any)
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(up, "INSERT INTO"):
		return c.insert(query, args)
	case strings.HasPrefix(up, "DELETE FROM"):
		return c.delete(query, args)
	}
	return driver.RowsAffected(0), nil
}

func (c *StubConn) insert(query string, args []driver.NamedValue) (driver.Result, error) {
	table, cols, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	if strings.Contains(strings.ToUpper(query), "ON CONFLICT") {
		primary := cols[0]
		filtered := c.Tables[table][:0:0]
		for _, existing := range c.Tables[table] {
			if fmt.Sprint(existing[primary]) != fmt.Sprint(row[primary]) {
				filtered = append(filtered, existing)
			}
		}
		c.Tables[table] = filtered
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

func (c *StubConn) delete(query string, args []driver.NamedValue) (driver.Result, error) {
	table, where, err := parseDelete(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	pred, err := parsePredicate(where, args)
	if err != nil {
		return nil, err
	}
	var kept []map[string]any
	var removed int64
	for _, row := range c.Tables[table] {
		if pred.match(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	c.Tables[table] = kept
	return driver.RowsAffected(removed), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.Tables == nil {
		c.Tables = make(map[string][]map[string]any)
	}
	sel, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[sel.table] {
		return nil, fmt.Errorf("query fail for %s", sel.table)
	}
	var pred predicate
	if sel.where != "" {
		if pred, err = parsePredicate(sel.where, args); err != nil {
			return nil, err
		}
	}
	var matched []map[string]any
	for _, row := range c.Tables[sel.table] {
		if sel.where == "" || pred.match(row) {
			matched = append(matched, row)
		}
	}
	if sel.orderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return fmt.Sprint(matched[i][sel.orderBy]) < fmt.Sprint(matched[j][sel.orderBy])
		})
	}
	values := make([][]driver.Value, 0, len(matched))
	for _, row := range matched {
		vals := make([]driver.Value, len(sel.cols))
		for i, col := range sel.cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: sel.cols, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}
func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

// predicate is a single `col = value` or `col LIKE 'prefix%'` condition.
type predicate struct {
	col    string
	value  string
	prefix bool
}

func (p predicate) match(row map[string]any) bool {
	v, ok := row[p.col]
	if !ok {
		return false
	}
	s := fmt.Sprint(v)
	if p.prefix {
		return strings.HasPrefix(s, p.value)
	}
	return s == p.value
}

func parsePredicate(where string, args []driver.NamedValue) (predicate, error) {
	fields := strings.Fields(where)
	if len(fields) < 3 {
		return predicate{}, fmt.Errorf("cannot parse predicate: %s", where)
	}
	col := strings.ToLower(fields[0])
	op := strings.ToUpper(fields[1])
	idx, err := strconv.Atoi(strings.TrimPrefix(fields[2], "$"))
	if err != nil || idx < 1 || idx > len(args) {
		return predicate{}, fmt.Errorf("cannot resolve placeholder %s", fields[2])
	}
	arg := fmt.Sprint(args[idx-1].Value)
	switch op {
	case "=":
		return predicate{col: col, value: arg}, nil
	case "LIKE":
		value, ok := likePrefix(arg)
		if !ok {
			return predicate{}, fmt.Errorf("unsupported LIKE pattern %q", arg)
		}
		return predicate{col: col, value: value, prefix: true}, nil
	}
	return predicate{}, fmt.Errorf("unsupported operator %s", op)
}

// likePrefix decodes a backslash-escaped pattern ending in an unescaped '%'.
func likePrefix(pattern string) (string, bool) {
	var b strings.Builder
	escaped := false
	for i, r := range pattern {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			return b.String(), i == len(pattern)-1
		case r == '_':
			return "", false
		default:
			b.WriteRune(r)
		}
	}
	return "", false
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	cols := splitColumns(rest[open+1 : closeIdx])
	return table, cols, nil
}

func parseDelete(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	prefix := "delete from "
	whereToken := " where "
	if !strings.HasPrefix(lower, prefix) {
		return "", "", fmt.Errorf("cannot parse delete: %s", query)
	}
	rest := strings.TrimSpace(trimmed[len(prefix):])
	whereIdx := strings.Index(strings.ToLower(rest), whereToken)
	if whereIdx == -1 {
		return "", "", fmt.Errorf("cannot parse delete: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:whereIdx]))
	return table, strings.TrimSpace(rest[whereIdx+len(whereToken):]), nil
}

type selectStmt struct {
	table   string
	cols    []string
	where   string
	orderBy string
}

func parseSelect(query string) (selectStmt, error) {
	query = strings.Join(strings.Fields(query), " ")
	lower := strings.ToLower(query)
	if !strings.HasPrefix(lower, "select ") {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, " from ")
	if fromIdx == -1 {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	sel := selectStmt{cols: splitColumns(query[len("select "):fromIdx])}
	rest := query[fromIdx+len(" from "):]
	lowerRest := strings.ToLower(rest)
	if i := strings.Index(lowerRest, " order by "); i != -1 {
		sel.orderBy = strings.ToLower(strings.Fields(rest[i+len(" order by "):])[0])
		rest, lowerRest = rest[:i], lowerRest[:i]
	}
	if i := strings.Index(lowerRest, " where "); i != -1 {
		sel.where = strings.TrimSpace(rest[i+len(" where "):])
		rest = rest[:i]
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	sel.table = strings.ToLower(fields[0])
	return sel, nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
