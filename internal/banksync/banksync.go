package banksync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"k8s.io/klog"

	"github.com/hearthledger/hearth/internal/config"
	"github.com/hearthledger/hearth/internal/stats"
	"github.com/hearthledger/hearth/pkg/bankfeed"
	"github.com/hearthledger/hearth/pkg/categorize"
	"github.com/hearthledger/hearth/pkg/ledger"
	"github.com/hearthledger/hearth/pkg/postgresutils"
	"github.com/hearthledger/hearth/pkg/reconcile"
)

const defaultLookbackDays = 90

// the whole merge either finishes inside this or the sync fails; a partial
// merge could silently under-report transactions
const syncTimeout = 10 * time.Minute

type ImportBankFeedRunner struct {
	db     *bun.DB
	repo   *ledger.Repository
	merger *bankfeed.WindowMerger
	log    *logrus.Logger
}

func NewImportBankFeedRunner() (*ImportBankFeedRunner, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(os.Getenv("HEARTH_LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	db, err := postgresutils.CreatePostgresClient(config.CurrentLedgerConfig().SQL.LedgerDatabase)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to postgres DB: %s", err)
	}

	client := bankfeed.NewClient(
		config.CurrentBankSyncConfig().FeedURL,
		config.CurrentBankFeedSecrets().AccessToken,
	)

	return &ImportBankFeedRunner{
		db:     db,
		repo:   ledger.NewRepository(db),
		merger: bankfeed.NewWindowMerger(client),
		log:    log,
	}, nil
}

func (r *ImportBankFeedRunner) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := r.repo.Migrate(ctx); err != nil {
		return err
	}

	lookback := config.CurrentBankSyncConfig().LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}

	end := time.Now().Unix()
	start := time.Now().AddDate(0, 0, -lookback).Unix()

	snapshot, err := r.merger.FetchRange(ctx, start, end)
	if err != nil {
		// the two user-actionable failures get their own messages instead
		// of a generic "sync failed"
		switch {
		case errors.Is(err, bankfeed.ErrReauthRequired):
			r.log.Error("Bank feed credentials expired; reconnect the account and retry")
		case errors.Is(err, bankfeed.ErrRateLimited):
			r.log.Errorf("Bank feed call budget exhausted (~%d/day); retry tomorrow", bankfeed.DailyRequestBudget)
		}
		return err
	}

	bankfeed.ApplyLedgerSign(snapshot)

	if err := r.syncAccounts(ctx, snapshot); err != nil {
		return err
	}

	return r.importTransactions(ctx, snapshot)
}

// syncAccounts upserts the feed's account state. Balances arrive in account
// state terms and were not sign-normalized.
func (r *ImportBankFeedRunner) syncAccounts(ctx context.Context, snapshot *bankfeed.Snapshot) error {
	accounts := make([]ledger.Account, len(snapshot.Accounts))
	for i, account := range snapshot.Accounts {
		accounts[i] = ledger.Account{
			RemoteID:       account.ID,
			Name:           account.Name,
			Classification: account.Type,
			Active:         true,
			Balance:        account.Balance,
			BalanceDate:    time.Unix(account.BalanceDate, 0),
		}
	}

	if err := r.repo.UpsertAccounts(ctx, accounts); err != nil {
		return err
	}

	klog.Infof("Synced %d accounts from bank feed\n", len(accounts))

	return nil
}

func (r *ImportBankFeedRunner) importTransactions(ctx context.Context, snapshot *bankfeed.Snapshot) error {
	history, err := r.repo.CategoryHistory(ctx)
	if err != nil {
		return err
	}

	categoryIDs, err := r.repo.CategoryIDs(ctx)
	if err != nil {
		return err
	}

	active, err := r.repo.ActiveAccounts(ctx)
	if err != nil {
		return err
	}

	names := make([]string, len(active))
	accountIDsByRemote := make(map[string]int64, len(active))
	for i, account := range active {
		names[i] = account.Name
		accountIDsByRemote[account.RemoteID] = account.ID
	}

	engine := categorize.NewEngine(categorize.BuildHistory(history), categoryIDs)
	transfers := reconcile.NewTransferDetector(names)
	batchID := uuid.NewString()

	transactions := []ledger.Transaction{}
	transferCount, suggestionCount := 0, 0

	for _, account := range snapshot.Accounts {
		for _, t := range account.Transactions {
			suggestion := engine.Suggest(t.Payee, t.Description)
			if suggestion.Confidence > 0 {
				suggestionCount++
			}

			if transfers.IsTransfer(t.Payee, t.Description, t.Amount) {
				transferCount++
				r.log.WithFields(logrus.Fields{
					"description": t.Description,
					"amount":      t.Amount,
				}).Warn("Synced row looks like an inter-account transfer")
			}

			transactions = append(transactions, ledger.Transaction{
				RemoteID:        t.ID,
				AccountID:       accountIDsByRemote[account.ID],
				TransactionDate: time.Unix(t.Posted, 0).UTC(),
				Payee:           t.Payee,
				Description:     t.Description,
				Amount:          t.Amount,
				CategoryID:      suggestion.CategoryID,
				ImportBatchID:   batchID,
			})
		}
	}

	// the unique remote id makes re-syncing the same window idempotent;
	// already-stored rows are skipped, never a batch abort
	imported, skipped, err := r.repo.CommitBatch(ctx, transactions)
	if err != nil {
		return err
	}

	statsErr := stats.Write(stats.RunStats{
		Source:          "banksync",
		BatchID:         batchID,
		ParsedRows:      len(transactions),
		ImportedRows:    imported,
		SkippedRows:     skipped,
		TransferCount:   transferCount,
		SuggestionCount: suggestionCount,
	})
	if statsErr != nil {
		r.log.Warnf("Failed to write sync stats to influx: %v", statsErr)
	}

	fmt.Printf("Wrote %d transactions to sql from bank feed (%d already synced)\n", imported, skipped)

	return nil
}

func (r *ImportBankFeedRunner) Close() error {
	return r.db.Close()
}
