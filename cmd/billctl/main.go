package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/config"
	"github.com/dvloznov/bill-ledger/internal/doc/xlsxdoc"
	"github.com/dvloznov/bill-ledger/internal/extract"
	"github.com/dvloznov/bill-ledger/internal/ledger"
	"github.com/dvloznov/bill-ledger/internal/logger"
	"github.com/dvloznov/bill-ledger/internal/upload"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "insert":
		runInsert(log)
	case "validate":
		runValidate(log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bill Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  billctl <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process   Extract bill PDFs and merge them into the ledger")
	fmt.Println("  insert    Merge bills from a JSON file into the ledger")
	fmt.Println("  validate  Check item sums against declared totals in a JSON file")
	fmt.Println("  upload    Archive a bill PDF to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'billctl <command> -h' for more information on a command.")
}

// runProcess is the end-to-end path: PDFs in, ledger rows out.
func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	ledgerPath := fs.String("ledger", "", "Ledger spreadsheet path (defaults to LEDGER_FILE)")
	archive := fs.Bool("archive", false, "Upload the source PDFs to GCS after a successful batch")
	fs.Parse(os.Args[2:])

	pdfs := fs.Args()
	if len(pdfs) == 0 {
		log.Fatal().Msg("Usage: billctl process [options] BILL.pdf [BILL.pdf ...]")
	}

	cfg := loadConfig(log, *ledgerPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	extractor := extract.NewGeminiExtractor(cfg.GeminiModel)
	bills := make([]bill.Record, 0, len(pdfs))
	for _, pdf := range pdfs {
		log.Info().Str("file", pdf).Msg("Extracting bill")
		rec, err := extractor.ExtractBill(ctx, pdf)
		if err != nil {
			log.Fatal().Err(err).Str("file", pdf).Msg("Extraction failed")
		}

		check, err := bill.ValidateTotal(*rec)
		if err != nil {
			log.Fatal().Err(err).Str("file", pdf).Msg("Invalid bill")
		}
		if !check.Valid {
			log.Warn().
				Str("file", pdf).
				Float64("calculated", check.CalculatedSum).
				Float64("declared", check.DeclaredTotal).
				Msg("Item sum does not match declared total")
		}
		bills = append(bills, *rec)
	}

	processBills(log, cfg, bills)

	if *archive {
		if cfg.GCSBucket == "" {
			log.Warn().Msg("GCS_BUCKET not set; skipping archive")
			return
		}
		uploader := upload.New(cfg.GCSBucket, cfg.GoogleCredentialsFile)
		runID := uuid.NewString()
		for _, pdf := range pdfs {
			object := upload.ObjectName(runID, pdf)
			if err := uploader.UploadFile(ctx, object, pdf); err != nil {
				log.Error().Err(err).Str("file", pdf).Msg("Archive upload failed")
				continue
			}
			log.Info().Str("object", object).Msg("Archived bill PDF")
		}
	}
}

func runInsert(log zerolog.Logger) {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	ledgerPath := fs.String("ledger", "", "Ledger spreadsheet path (defaults to LEDGER_FILE)")
	billsFile := fs.String("bills", "", "JSON file with a bill object or array of bills")
	fs.Parse(os.Args[2:])

	if *billsFile == "" {
		log.Fatal().Msg("Error: --bills is required")
	}

	bills, err := readBillsFile(*billsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not read bills file")
	}

	cfg := loadConfig(log, *ledgerPath)
	processBills(log, cfg, bills)
}

func runValidate(log zerolog.Logger) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	billsFile := fs.String("bills", "", "JSON file with a bill object or array of bills")
	fs.Parse(os.Args[2:])

	if *billsFile == "" {
		log.Fatal().Msg("Error: --bills is required")
	}

	bills, err := readBillsFile(*billsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not read bills file")
	}

	failed := 0
	for _, rec := range bills {
		check, err := bill.ValidateTotal(rec)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %s %s  %v\n", rec.Date, rec.Store, err)
			continue
		}
		if check.Valid {
			fmt.Printf("OK    %s %s  total %.2f\n", rec.Date, rec.Store, check.DeclaredTotal)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s %s  items sum to %.2f, declared %.2f (diff %.2f)\n",
			rec.Date, rec.Store, check.CalculatedSum, check.DeclaredTotal, check.Difference)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local bill PDF")
	objectName := fs.String("object", "", "GCS object name (defaults to bills/<id>_<filename>)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: billctl upload -file PATH")
	}

	cfg := config.Load()
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("Error: GCS_BUCKET must be set")
	}
	if *objectName == "" {
		*objectName = upload.ObjectName(uuid.NewString(), *filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", cfg.GCSBucket).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading bill to GCS")

	uploader := upload.New(cfg.GCSBucket, cfg.GoogleCredentialsFile)
	if err := uploader.UploadFile(ctx, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, cfg.GCSBucket, *objectName)
}

func loadConfig(log zerolog.Logger, ledgerOverride string) *config.Config {
	cfg := config.Load()
	if ledgerOverride != "" {
		cfg.LedgerPath = ledgerOverride
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	return cfg
}

func processBills(log zerolog.Logger, cfg *config.Config, bills []bill.Record) {
	engine := ledger.NewEngine(cfg.Ledger(), log)
	batch := ledger.NewBatch(xlsxdoc.Store{}, engine, log)
	if err := batch.ProcessBatch(cfg.LedgerPath, bills); err != nil {
		log.Fatal().Err(err).Msg("Batch failed; ledger restored from backup")
	}
	fmt.Printf("Merged %d bill(s) into %s\n", len(bills), cfg.LedgerPath)
}

// readBillsFile accepts either a single bill object or an array.
func readBillsFile(path string) ([]bill.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var bills []bill.Record
	if err := json.Unmarshal(data, &bills); err == nil {
		return bills, nil
	}

	var single bill.Record
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return []bill.Record{single}, nil
}
