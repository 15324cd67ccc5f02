// Pacote migrations centraliza as versoes gormigrate aplicadas na inicializacao.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/placar-show/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202503010001_drafts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Draft{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("drafts")
			},
		},
		{
			ID: "202503010002_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Session{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sessions")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
