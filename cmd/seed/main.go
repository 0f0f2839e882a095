package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"bookrecords/internal/book"
	"bookrecords/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var catalogue = []book.Book{
	{ISBN: "1111111", AmazonURL: "amazon.com/book", Author: "Maria Aldapa", Language: "english", Pages: 100, Publisher: "Penguin", Title: "My Book", Year: 1989},
	{ISBN: "0691161518", AmazonURL: "http://a.co/eobPtX2", Author: "Matthew Lane", Language: "english", Pages: 264, Publisher: "Princeton University Press", Title: "Power-Up: Unlocking the Hidden Mathematics in Video Games", Year: 2017},
	{ISBN: "9780143127550", AmazonURL: "http://a.co/d/5Zc5kPl", Author: "Daniel H. Pink", Language: "english", Pages: 288, Publisher: "Riverhead Books", Title: "Drive", Year: 2011},
	{ISBN: "9780262033848", AmazonURL: "http://a.co/d/0cTb1vN", Author: "Thomas H. Cormen", Language: "english", Pages: 1312, Publisher: "MIT Press", Title: "Introduction to Algorithms", Year: 2009},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	inserted, skipped, err := seed(ctx, repo, catalogue)
	if err != nil {
		log.Fatalf("Failed to seed books: %v", err)
	}
	logger.Info("seed complete", "inserted", inserted, "skipped", skipped)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (book.Repository, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		repo, err := book.OpenSQLite(ctx, cfg.SQLitePath, cfg.DBTimeout, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	return book.NewPostgresRepo(pool, cfg.DBTimeout, logger), pool.Close, nil
}

// seed inserts books, skipping ISBNs that already exist so it can be rerun.
func seed(ctx context.Context, repo book.Repository, books []book.Book) (inserted, skipped int, err error) {
	for _, b := range books {
		if _, err := repo.Insert(ctx, b); err != nil {
			if errors.Is(err, book.ErrDuplicateISBN) {
				skipped++
				continue
			}
			return inserted, skipped, err
		}
		inserted++
	}
	return inserted, skipped, nil
}
