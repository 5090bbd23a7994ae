package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BackupDatabase shells out to mysqldump before a schema change. Flags come
// from DB_BACKUP_FLAGS so credentials never live in code.
func BackupDatabase(outPath string) error {
	if _, err := exec.LookPath("mysqldump"); err != nil {
		return fmt.Errorf("mysqldump not found in PATH: %w", err)
	}

	args := strings.Fields(os.Getenv("DB_BACKUP_FLAGS"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	cmd.Stdout = outFile
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump failed: %w", err)
	}
	return nil
}

// RunMigrationsWithBackup takes a best-effort dump when DB_BACKUP_PATH is set,
// then AutoMigrates the given models. Order matters: users before the tables
// that reference them, badges before tiers and progress rows.
func RunMigrationsWithBackup(db *gorm.DB, models ...interface{}) error {
	if backupPath := os.Getenv("DB_BACKUP_PATH"); backupPath != "" {
		if err := BackupDatabase(backupPath); err != nil {
			log.Printf("[migrate] pre-migration backup skipped: %v", err)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models...)
	})
}
