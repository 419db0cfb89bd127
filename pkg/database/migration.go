package database

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationService applies file-based migrations to one database.
type MigrationService struct {
	folderPath string
	logger     ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, folderPath string) *MigrationService {
	return &MigrationService{
		folderPath: folderPath,
		logger:     logger,
	}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	if _, err := os.Stat(ms.folderPath); err == nil {
		return ms.folderPath
	}
	workingDirectory, _ := os.Getwd()
	separator := ""
	if workingDirectory != "/" {
		separator = "/"
	}
	return workingDirectory + separator + ms.folderPath
}

// Migrate brings databaseName up to the latest migration in the folder.
func (ms *MigrationService) Migrate(databaseName string, databaseInstance database.Driver) error {
	migrationFolder := ms.resolveMigrationFolder()
	if _, err := os.Stat(migrationFolder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("migration folder %s does not exist", migrationFolder))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationFolder, databaseName, databaseInstance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	err = m.Up()
	if err == migrate.ErrNoChange {
		ms.logger.Infof("No new migrations to apply for %s", databaseName)
		return nil
	}
	if err != nil {
		version, dirty, versionErr := m.Version()
		if versionErr != nil && versionErr != migrate.ErrNilVersion {
			ms.logger.WithError(versionErr).Error("Failed to get current migration version")
		}
		ms.logger.WithError(err).Errorf("Failed to apply migrations for %s. Database version is dirty=%t at version %d", databaseName, dirty, version)
		return err
	}

	ms.logger.Infof("Successfully applied migrations for %s", databaseName)
	return nil
}
