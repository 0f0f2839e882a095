package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type bookRow struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ISBN      string `bun:"isbn,pk"`
	AmazonURL string `bun:"amazon_url,notnull"`
	Author    string `bun:"author,notnull"`
	Language  string `bun:"language,notnull"`
	Pages     int    `bun:"pages,notnull"`
	Publisher string `bun:"publisher,notnull"`
	Title     string `bun:"title,notnull"`
	Year      int    `bun:"year,notnull"`
}

func rowFromBook(b Book) *bookRow {
	return &bookRow{
		ISBN:      b.ISBN,
		AmazonURL: b.AmazonURL,
		Author:    b.Author,
		Language:  b.Language,
		Pages:     b.Pages,
		Publisher: b.Publisher,
		Title:     b.Title,
		Year:      b.Year,
	}
}

func (r *bookRow) book() Book {
	return Book{
		ISBN:      r.ISBN,
		AmazonURL: r.AmazonURL,
		Author:    r.Author,
		Language:  r.Language,
		Pages:     r.Pages,
		Publisher: r.Publisher,
		Title:     r.Title,
		Year:      r.Year,
	}
}

// BunRepo stores books in SQLite through bun. It backs STORE_DRIVER=sqlite
// and the end-to-end tests.
type BunRepo struct {
	db      *bun.DB
	timeout time.Duration
	logger  Logger
}

// OpenSQLite opens (or creates) the SQLite database at path and makes sure the
// books table exists.
func OpenSQLite(ctx context.Context, path string, timeout time.Duration, logger Logger) (*BunRepo, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	sqldb.SetMaxOpenConns(1)

	repo, err := NewBunRepo(ctx, bun.NewDB(sqldb, sqlitedialect.New()), timeout, logger)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return repo, nil
}

func NewBunRepo(ctx context.Context, db *bun.DB, timeout time.Duration, logger Logger) (*BunRepo, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	if _, err := db.NewCreateTable().Model((*bookRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create books table: %w", err)
	}
	return &BunRepo{db: db, timeout: timeout, logger: logger}, nil
}

func (r *BunRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *BunRepo) List(ctx context.Context) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []bookRow
	if err := r.db.NewSelect().Model(&rows).OrderExpr("title ASC, isbn ASC").Scan(timeoutCtx); err != nil {
		r.logger.Error(logMsgQueryFailed, logAttrError, err)
		return nil, err
	}

	out := make([]Book, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].book())
	}
	return out, nil
}

func (r *BunRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := new(bookRow)
	if err := r.db.NewSelect().Model(row).Where("isbn = ?", isbn).Limit(1).Scan(timeoutCtx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return row.book(), nil
}

func (r *BunRepo) Insert(ctx context.Context, b Book) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.NewInsert().Model(rowFromBook(b)).Exec(timeoutCtx); err != nil {
		if isUniqueViolation(err) {
			r.logger.Info(logMsgDuplicateKey, logAttrISBN, b.ISBN)
			return Book{}, ErrDuplicateISBN
		}
		return Book{}, err
	}
	return b, nil
}

func (r *BunRepo) UpdateByISBN(ctx context.Context, isbn string, f Fields) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b := f.WithISBN(isbn)
	res, err := r.db.NewUpdate().
		Model(rowFromBook(b)).
		Column("amazon_url", "author", "language", "pages", "publisher", "title", "year").
		WherePK().
		Exec(timeoutCtx)
	if err != nil {
		return Book{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Book{}, err
	}
	if n == 0 {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (r *BunRepo) DeleteByISBN(ctx context.Context, isbn string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().Model((*bookRow)(nil)).Where("isbn = ?", isbn).Exec(timeoutCtx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BunRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (r *BunRepo) Close() error {
	return r.db.Close()
}

// Both SQLite drivers behind sqliteshim report constraint failures this way.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
