package csvimport

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/hearthledger/hearth/internal/config"
	"github.com/hearthledger/hearth/internal/stats"
	"github.com/hearthledger/hearth/pkg/categorize"
	"github.com/hearthledger/hearth/pkg/ledger"
	"github.com/hearthledger/hearth/pkg/postgresutils"
	"github.com/hearthledger/hearth/pkg/reconcile"
)

const LogLevelEnv = "HEARTH_LOG_LEVEL"

type ImportCSVRunner struct {
	db        *bun.DB
	repo      *ledger.Repository
	csvFile   string
	accountID int64
	log       *logrus.Logger
}

type CommitResult struct {
	ImportedCount     int
	SkippedDuplicates int
	SkippedByCutoff   int
}

func NewImportCSVRunner(csvFile string, accountID int64) (*ImportCSVRunner, error) {
	log := logrus.New()
	log.SetReportCaller(true)

	level, err := logrus.ParseLevel(os.Getenv(LogLevelEnv))
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	db, err := postgresutils.CreatePostgresClient(config.CurrentLedgerConfig().SQL.LedgerDatabase)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to postgres DB: %s", err)
	}

	log.Infof("Connected to postgres database %v", config.CurrentLedgerConfig().SQL.LedgerDatabase)

	return &ImportCSVRunner{
		db:        db,
		repo:      ledger.NewRepository(db),
		csvFile:   csvFile,
		accountID: accountID,
		log:       log,
	}, nil
}

func (i *ImportCSVRunner) Run() error {
	ctx := context.Background()

	raw, err := os.ReadFile(i.csvFile)
	if err != nil {
		return fmt.Errorf("failed to open %s csv file %w", i.csvFile, err)
	}

	if err := i.repo.Migrate(ctx); err != nil {
		return err
	}

	pipeline, err := i.buildPipeline(ctx)
	if err != nil {
		return err
	}

	review, err := pipeline.Review(string(raw))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", i.csvFile, err)
	}

	i.log.WithFields(logrus.Fields{
		"file":    i.csvFile,
		"format":  review.Parse.DetectedFormat,
		"rows":    review.Parse.TotalRows,
		"dropped": review.Parse.DroppedRows,
	}).Info("Parsed statement file")

	result, err := i.Commit(ctx, review)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d transactions to sql from csv file %s (%d duplicates skipped, %d rows dropped)\n",
		result.ImportedCount, i.csvFile, result.SkippedDuplicates, review.Parse.DroppedRows)

	return nil
}

func (i *ImportCSVRunner) buildPipeline(ctx context.Context) (*Pipeline, error) {
	history, err := i.repo.CategoryHistory(ctx)
	if err != nil {
		return nil, err
	}

	categoryIDs, err := i.repo.CategoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := i.repo.ActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(accounts))
	for j, account := range accounts {
		names[j] = account.Name
	}

	return &Pipeline{
		Engine:    categorize.NewEngine(categorize.BuildHistory(history), categoryIDs),
		Transfers: reconcile.NewTransferDetector(names),
		FetchStored: func(from, to time.Time) ([]reconcile.StoredTransaction, error) {
			return i.repo.StoredTransactionsBetween(ctx, from, to)
		},
		Owner:      config.CurrentImportConfig().PeerPaymentOwner,
		SampleRows: config.CurrentImportConfig().SampleRows,
	}, nil
}

type commitPlan struct {
	transactions []ledger.Transaction

	duplicates    int
	transfers     int
	suggestions   int
	exactSkips    int
	cutoffSkipped int
}

// planCommit resolves the advisory verdicts by policy, since this runner is
// non-interactive: exact duplicates are skipped (and logged), possible
// duplicates and transfer flags are imported with a warning. Suggested
// categories are applied when the engine produced one. Rows older than the
// configured cutoff are dropped and counted separately from duplicates.
func (i *ImportCSVRunner) planCommit(review *Review, importAfter time.Time, cutoffSet bool) commitPlan {
	plan := commitPlan{transactions: make([]ledger.Transaction, 0, len(review.Rows))}

	for _, row := range review.Rows {
		if row.Duplicate.Status != reconcile.DuplicateNone {
			plan.duplicates++
		}
		if row.Transfer {
			plan.transfers++
			i.log.WithFields(logrus.Fields{
				"description": row.Row.Description,
				"amount":      row.Row.Amount,
			}).Warn("Row looks like an inter-account transfer")
		}
		if row.Suggestion.Confidence > 0 {
			plan.suggestions++
		}

		if row.Duplicate.Status == reconcile.DuplicateExact {
			plan.exactSkips++
			i.log.WithFields(logrus.Fields{
				"description": row.Row.Description,
				"match":       *row.Duplicate.MatchID,
			}).Info("Skipping exact duplicate")
			continue
		}

		if cutoffSet && row.Row.Date.Before(importAfter) {
			plan.cutoffSkipped++
			continue
		}

		plan.transactions = append(plan.transactions, ledger.Transaction{
			AccountID:       i.accountID,
			TransactionDate: row.Row.Date,
			Payee:           row.Row.Payee,
			Description:     row.Row.Description,
			Note:            row.Row.Note,
			Amount:          row.Row.Amount,
			CategoryID:      row.Suggestion.CategoryID,
			ImportBatchID:   review.BatchID,
		})
	}

	return plan
}

// Commit persists the reviewed rows per planCommit's policy.
func (i *ImportCSVRunner) Commit(ctx context.Context, review *Review) (*CommitResult, error) {
	importAfter, cutoffSet := importCutoff()
	plan := i.planCommit(review, importAfter, cutoffSet)

	imported, skipped, err := i.repo.CommitBatch(ctx, plan.transactions)
	if err != nil {
		return nil, err
	}

	statsErr := stats.Write(stats.RunStats{
		Source:          "csv",
		BatchID:         review.BatchID,
		ParsedRows:      review.Parse.TotalRows,
		DroppedRows:     review.Parse.DroppedRows,
		ImportedRows:    imported,
		SkippedRows:     skipped,
		DuplicateCount:  plan.duplicates,
		TransferCount:   plan.transfers,
		SuggestionCount: plan.suggestions,
	})
	if statsErr != nil {
		i.log.Warnf("Failed to write import stats to influx: %v", statsErr)
	}

	return &CommitResult{
		ImportedCount:     imported,
		SkippedDuplicates: skipped + plan.exactSkips,
		SkippedByCutoff:   plan.cutoffSkipped,
	}, nil
}

func (i *ImportCSVRunner) Close() error {
	return i.db.Close()
}

func importCutoff() (time.Time, bool) {
	raw := config.CurrentImportConfig().ImportAfterDate
	if raw == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
