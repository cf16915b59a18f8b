package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB persists runs through GORM; the dialector decides whether that means a
// SQLite file or a Postgres server.
type DB struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at path; an empty path
// selects a shared in-memory database.
func OpenSQLite(path string) (*DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	return &DB{db: db}, nil
}

// OpenPostgres connects to a Postgres server.
func OpenPostgres(host, port, username, password, database string) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, username, password, database,
	)
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &DB{db: db}, nil
}

// Init migrates the schema.
func (d *DB) Init() error {
	if err := d.db.AutoMigrate(&Run{}, &IonResult{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun inserts the run; GORM writes the generated ID back.
func (d *DB) BeginRun(run *Run) error {
	return d.db.Create(run).Error
}

// EndRun updates the run with its final numbers.
func (d *DB) EndRun(run *Run) error {
	return d.db.Save(run).Error
}

// RecordResult inserts one ion outcome.
func (d *DB) RecordResult(res *IonResult) error {
	return d.db.Create(res).Error
}
