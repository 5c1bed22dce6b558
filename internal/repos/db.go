package repos

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenDB opens the process-wide storage handle and brings the schema up to date.
// The pool is capped at one connection: SQLite serializes writers anyway, and a
// single connection keeps ":memory:" databases coherent.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	p := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !strings.Contains(dsn, ":memory:") {
		p += "&_pragma=journal_mode(WAL)"
	}
	return dsn + sep + p
}

func runMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	// m.Close would close db as well, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction and commits only if fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Seed inserts the demo catalog and accounts. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
			return err
		}
		if n == 0 {
			log.Println("[seed] inserting demo products")
			if _, err := tx.ExecContext(ctx, `INSERT INTO products(id,name,category,price,quantity,image) VALUES
			  ('milk-1l','Milk 1L','Dairy','2.50',40,'milk.png'),
			  ('bread-loaf','Wholemeal Bread','Bakery','1.20',25,'bread.png'),
			  ('apples-1kg','Apples 1kg','Produce','3.80',30,'apples.png'),
			  ('bananas','Bananas (bunch)','Produce','1.95',18,'bananas.png'),
			  ('tomatoes','Tomatoes 500g','Produce','2.10',12,'tomatoes.png'),
			  ('eggs-12','Free Range Eggs x12','Dairy','4.60',0,'eggs.png')`); err != nil {
				return err
			}
		}

		type u struct{ ID, Email, Name, Role string }
		for _, x := range []u{
			{"u-admin", "admin@freshmart.test", "Admin", "admin"},
			{"u-mary", "mary@freshmart.test", "Mary", "user"},
			{"u-peter", "peter@freshmart.test", "Peter", "user"},
		} {
			h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users(id,email,username,password_hash,role)
				VALUES(?,?,?,?,?)
				ON CONFLICT(email) DO NOTHING
			`, x.ID, x.Email, x.Name, string(h), x.Role); err != nil {
				return err
			}
		}
		return nil
	})
}
