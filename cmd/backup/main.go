package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"triproom/internal/config"
	"triproom/internal/database"
	"triproom/internal/logging"
	"triproom/internal/service"
)

// clearOrder lists tables children first so foreign keys hold while deleting
var clearOrder = []string{
	"poll_votes",
	"poll_options",
	"polls",
	"expenses",
	"tasks",
	"itinerary_entries",
	"room_members",
	"rooms",
	"sessions",
	"users",
}

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fatal("Failed to initialize database", err)
	}
	defer db.Close()

	// The schema must exist before anything can be read or written
	if err := db.RunMigrations(ctx); err != nil {
		fatal("Failed to run migrations", err)
	}

	backupService := service.NewBackupService(db)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = handleExport(ctx, backupService, *exportOutput)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = handleImport(ctx, backupService, db, *importInput, *importClear)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal(os.Args[1]+" failed", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	slog.Info("Exporting database", "path", outputPath)
	if _, err := backupService.Export(ctx, file); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to flush backup file: %w", err)
	}

	if info, err := file.Stat(); err == nil {
		slog.Info("Export complete", "size_mb", fmt.Sprintf("%.2f", float64(info.Size())/1024/1024))
	}
	return nil
}

func handleImport(ctx context.Context, backupService *service.BackupService, db *database.DB, inputPath string, clearData bool) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			slog.Info("Import cancelled")
			return nil
		}
		if err := clearDatabase(ctx, db); err != nil {
			return err
		}
	}

	slog.Info("Importing database", "path", inputPath)
	if err := backupService.Import(ctx, file); err != nil {
		return err
	}
	slog.Info("Import complete")
	return nil
}

func clearDatabase(ctx context.Context, db *database.DB) error {
	return db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			slog.Info("Cleared table", "table", table)
		}
		return nil
	})
}

func printUsage() {
	fmt.Println("Trip Room Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./triproom.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
