package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("not found")

// memoryDSN keeps the log scoped to the running session: nothing survives a
// restart unless the user points the store at a file or server.
const memoryDSN = "file::memory:?cache=shared"

// Store is the session job log. Every generate/remix/analyze submission and
// its outcome is recorded so the history command can list them.
type Store struct {
	open   gorm.Dialector
	db     *gorm.DB
	logger logger.Interface
}

// New builds a store. An empty dbType selects an in-memory sqlite database.
func New(dbType, dbConn string, debug bool) (*Store, error) {
	var open gorm.Dialector
	switch dbType {
	case "", "memory":
		open = sqlite.Open(memoryDSN)
	case "sqlite":
		open = sqlite.Open(dbConn)
	case "mysql":
		open = mysql.Open(dbConn)
	case "postgres":
		open = postgres.Open(dbConn)
	default:
		return nil, fmt.Errorf("history: unknown db type: %s", dbType)
	}
	l := logger.Default.LogMode(logger.Silent)
	if debug {
		l = logger.Default.LogMode(logger.Warn)
	}
	return &Store{
		open:   open,
		logger: l,
	}, nil
}

// Start opens the database connection, bailing out if it takes too long.
func (s *Store) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	errC := make(chan error, 1)
	go func() {
		db, err := gorm.Open(s.open, &gorm.Config{
			Logger: s.logger,
		})
		if err != nil {
			errC <- fmt.Errorf("history: failed to open database: %w", err)
			return
		}
		s.db = db
		errC <- nil
	}()
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("history: timed out opening database: %w", ctx.Err())
		}
		return ctx.Err()
	case err := <-errC:
		if err != nil {
			return err
		}
	}
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("history: failed to migrate database: %w", err)
	}
	return nil
}

// Record is one submission and its outcome.
type Record struct {
	ID        string `gorm:"primaryKey"`
	Workflow  string `gorm:"index"`
	Params    string
	Status    string
	Filename  string
	ErrKind   string
	ErrMsg    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Append stores a new record.
func (s *Store) Append(ctx context.Context, r *Record) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("history: failed to create record: %w", err)
	}
	return nil
}

// Finish updates the outcome of a record.
func (s *Store) Finish(ctx context.Context, id, status, filename, errKind, errMsg string) error {
	res := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]any{
		"status":   status,
		"filename": filename,
		"err_kind": errKind,
		"err_msg":  errMsg,
	})
	if res.Error != nil {
		return fmt.Errorf("history: failed to update record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the session records, newest first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	var records []*Record
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("history: failed to list records: %w", err)
	}
	return records, nil
}
