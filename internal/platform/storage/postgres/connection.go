// Pacote postgres implementa a persistencia de rascunhos e sessoes via GORM.
// Postgres e o alvo de producao; sqlite atende execucao local e testes.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Open(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("gorm: driver desconhecido %q", driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm %s: abrir conexao: %w", driver, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm %s: obter sql.DB: %w", driver, err)
	}

	if driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(60 * time.Minute)
	} else {
		// sqlite serializa escritas; uma conexao evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("gorm %s: ping falhou: %w", driver, err)
	}

	return gormDB, nil
}
