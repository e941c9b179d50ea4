package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// sqlExpr is the native form of an operation on a SQL engine: guard, when
// set, must return no rows; statements run in order, then query produces the
// result.
type sqlExpr struct {
	guard      string
	statements []string
	query      string
}

func (e sqlExpr) String() string {
	var b strings.Builder
	stmts := e.statements
	if e.guard != "" {
		stmts = append([]string{e.guard}, stmts...)
	}
	for _, stmt := range stmts {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	b.WriteString(e.query)
	b.WriteString(";")
	return b.String()
}

// sqlDialect captures what differs between embedded SQL engines
type sqlDialect struct {
	id          string
	driver      string
	dsn         string
	typeNames   map[core.SemanticType]string
	expressions map[string]sqlExpr
}

type sqlBackend struct {
	dialect sqlDialect
}

func (b *sqlBackend) ID() string {
	return b.dialect.id
}

func (b *sqlBackend) Kind() string {
	return KindSQLEngine
}

func (b *sqlBackend) Expressions() map[string]string {
	snippets := make(map[string]string, len(b.dialect.expressions))
	for name, expr := range b.dialect.expressions {
		snippets[name] = expr.String()
	}
	return snippets
}

// Open acquires an in-memory database and pins a single connection to it.
// In-memory SQLite databases are per connection, so the pool is limited to
// one connection for every dialect.
func (b *sqlBackend) Open(ctx context.Context) (Session, error) {
	db, err := sql.Open(b.dialect.driver, b.dialect.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", b.dialect.id, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to acquire %s connection: %w", b.dialect.id, err)
	}

	return &sqlSession{
		dialect: b.dialect,
		db:      db,
		conn:    conn,
		loaded:  make(map[string]*core.Table),
	}, nil
}

type sqlSession struct {
	dialect sqlDialect
	db      *sql.DB
	conn    *sql.Conn

	// loaded tracks which canonical table each native table was loaded from
	loaded map[string]*core.Table
}

func (s *sqlSession) Execute(ctx context.Context, op *catalog.Operation, inputs map[string]*core.Table) (Result, error) {
	expr, ok := s.dialect.expressions[op.Name]
	if !ok {
		return Result{}, fmt.Errorf("no %s expression for %s", s.dialect.id, op.Name)
	}

	for name, table := range inputs {
		if err := s.load(ctx, name, table); err != nil {
			return Result{}, err
		}
	}

	if expr.guard != "" {
		if err := s.check(ctx, expr.guard); err != nil {
			return Result{}, err
		}
	}

	// Statements may rewrite tables in place, so whatever they touch must be
	// reloaded from its canonical copy next time.
	if op.Materialize != "" {
		defer delete(s.loaded, op.Materialize)
	}

	for _, stmt := range expr.statements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return Result{}, fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}

	return s.query(ctx, expr.query)
}

// load creates the native table from its canonical copy unless that exact
// copy is already loaded.
func (s *sqlSession) load(ctx context.Context, name string, table *core.Table) error {
	if s.loaded[name] == table {
		return nil
	}

	ident := quoteIdent(name)
	if _, err := s.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}

	defs := make([]string, len(table.Columns))
	marks := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		defs[i] = quoteIdent(column.Name) + " " + s.dialect.typeNames[column.Type]
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(defs, ", "))
	if _, err := s.conn.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if len(table.Rows) > 0 {
		stmt, err := s.conn.PrepareContext(ctx,
			fmt.Sprintf("INSERT INTO %s VALUES (%s)", ident, strings.Join(marks, ", ")))
		if err != nil {
			return fmt.Errorf("failed to prepare insert into %s: %w", name, err)
		}
		defer stmt.Close()

		for r, row := range table.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", r, name, err)
			}
		}
	}

	s.loaded[name] = table
	return nil
}

func (s *sqlSession) query(ctx context.Context, query string) (Result, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", firstLine(query), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	result := Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		result.Rows = append(result.Rows, values)
	}

	return result, rows.Err()
}

// check fails with the first value of the first row the guard returns
func (s *sqlSession) check(ctx context.Context, guard string) error {
	rows, err := s.conn.QueryContext(ctx, guard)
	if err != nil {
		return fmt.Errorf("%s: %w", firstLine(guard), err)
	}
	defer rows.Close()

	if rows.Next() {
		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		return fmt.Errorf("unexpected %s %v: %s", columns[0], values[0], firstLine(guard))
	}
	return rows.Err()
}

// Close releases the pinned connection and the database
func (s *sqlSession) Close() error {
	connErr := s.conn.Close()
	dbErr := s.db.Close()
	if connErr != nil {
		return connErr
	}
	return dbErr
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i] + " ..."
	}
	return stmt
}
