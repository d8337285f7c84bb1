package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"iamkernel/apperror"
)

// Migrator owns the golang-migrate instance used to bring the schema up to
// date at boot. golang-migrate requires a database/sql connection, so this
// opens a second, minimal connection distinct from the pgxpool used for
// request traffic - the same split the teacher's migrator package makes.
type Migrator struct {
	db      *sql.DB
	migrate *migrate.Migrate
}

// NewMigrator opens sourcePath (a directory of .up.sql/.down.sql files) as
// the migration source for databaseURL.
func NewMigrator(databaseURL, sourcePath string) (*Migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to open migration connection", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperror.Wrap(apperror.KindUnavailable, "failed to ping migration connection", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, apperror.Wrap(apperror.KindInternal, "failed to create migration driver", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", sourcePath), "iamkernel", driver)
	if err != nil {
		db.Close()
		return nil, apperror.Wrap(apperror.KindInternal, "failed to create migrator", err)
	}

	return &Migrator{db: db, migrate: m}, nil
}

// Up applies every pending migration. ErrNoChange is not an error.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.migrate.Up(); err != nil && err != migrate.ErrNoChange {
		return apperror.Wrap(apperror.KindInternal, "failed to run migrations", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	_, dbErr := m.migrate.Close()
	if dbErr != nil {
		return dbErr
	}
	return m.db.Close()
}
