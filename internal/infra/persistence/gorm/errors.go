package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// isDuplicateEntryError recognises unique violations from every driver we run on.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") // MySQL, wrapped
}

// Pinger reports SQL store health for the health endpoint.
type Pinger struct {
	db     *gorm.DB
	driver string
}

// NewPinger labels the store with its driver name ("mysql", "sqlite").
func NewPinger(db *gorm.DB, driver string) *Pinger {
	return &Pinger{db: db, driver: driver}
}

// Ping checks the underlying connection pool.
func (p *Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("gorm: get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Name is the driver label.
func (p *Pinger) Name() string { return p.driver }
