package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tableBooks         = "books"
	dialectPostgres    = "postgres"
	pgUniqueViolation  = "23505"
	logMsgSQLExecuted  = "executed sql"
	logMsgQueryFailed  = "books query failed"
	logAttrQuery       = "query"
	logAttrError       = "error"
	logAttrDurationMS  = "duration_ms"
	logAttrISBN        = "isbn"
	logMsgDuplicateKey = "duplicate isbn rejected"
)

var bookColumns = []any{"isbn", "amazon_url", "author", "language", "pages", "publisher", "title", "year"}

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	logger  Logger
	builder goqu.DialectWrapper
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration, logger Logger) *PostgresRepo {
	if logger == nil {
		logger = nopLogger{}
	}
	return &PostgresRepo{
		db:      db,
		timeout: timeout,
		logger:  logger,
		builder: goqu.Dialect(dialectPostgres),
	}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) logSQL(query string, start time.Time) {
	r.logger.Debug(logMsgSQLExecuted, logAttrQuery, query, logAttrDurationMS, time.Since(start).Milliseconds())
}

func (r *PostgresRepo) listSQL() (string, []any, error) {
	return r.builder.From(tableBooks).
		Prepared(true).
		Select(bookColumns...).
		Order(goqu.C("title").Asc(), goqu.C("isbn").Asc()).
		ToSQL()
}

func (r *PostgresRepo) getSQL(isbn string) (string, []any, error) {
	return r.builder.From(tableBooks).
		Prepared(true).
		Select(bookColumns...).
		Where(goqu.C("isbn").Eq(isbn)).
		Limit(1).
		ToSQL()
}

func (r *PostgresRepo) insertSQL(b Book) (string, []any, error) {
	return r.builder.Insert(tableBooks).
		Prepared(true).
		Rows(goqu.Record{
			"isbn":       b.ISBN,
			"amazon_url": b.AmazonURL,
			"author":     b.Author,
			"language":   b.Language,
			"pages":      b.Pages,
			"publisher":  b.Publisher,
			"title":      b.Title,
			"year":       b.Year,
		}).
		Returning(bookColumns...).
		ToSQL()
}

func (r *PostgresRepo) updateSQL(isbn string, f Fields) (string, []any, error) {
	return r.builder.Update(tableBooks).
		Prepared(true).
		Set(goqu.Record{
			"amazon_url": f.AmazonURL,
			"author":     f.Author,
			"language":   f.Language,
			"pages":      f.Pages,
			"publisher":  f.Publisher,
			"title":      f.Title,
			"year":       f.Year,
		}).
		Where(goqu.C("isbn").Eq(isbn)).
		Returning(bookColumns...).
		ToSQL()
}

func (r *PostgresRepo) deleteSQL(isbn string) (string, []any, error) {
	return r.builder.Delete(tableBooks).
		Prepared(true).
		Where(goqu.C("isbn").Eq(isbn)).
		ToSQL()
}

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	query, args, err := r.listSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		r.logger.Error(logMsgQueryFailed, logAttrQuery, query, logAttrError, err)
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	r.logSQL(query, start)
	return out, rows.Err()
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	query, args, err := r.getSQL(isbn)
	if err != nil {
		return Book{}, fmt.Errorf("build get query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	r.logSQL(query, start)
	return b, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, in Book) (Book, error) {
	query, args, err := r.insertSQL(in)
	if err != nil {
		return Book{}, fmt.Errorf("build insert query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.logger.Info(logMsgDuplicateKey, logAttrISBN, in.ISBN)
			return Book{}, ErrDuplicateISBN
		}
		return Book{}, err
	}
	r.logSQL(query, start)
	return b, nil
}

func (r *PostgresRepo) UpdateByISBN(ctx context.Context, isbn string, f Fields) (Book, error) {
	query, args, err := r.updateSQL(isbn, f)
	if err != nil {
		return Book{}, fmt.Errorf("build update query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	r.logSQL(query, start)
	return b, nil
}

func (r *PostgresRepo) DeleteByISBN(ctx context.Context, isbn string) error {
	query, args, err := r.deleteSQL(isbn)
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	r.logSQL(query, start)
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ISBN, &b.AmazonURL, &b.Author, &b.Language, &b.Pages, &b.Publisher, &b.Title, &b.Year)
	return b, err
}
