package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/hearthledger/hearth/pkg/categorize"
	"github.com/hearthledger/hearth/pkg/postgresutils"
	"github.com/hearthledger/hearth/pkg/reconcile"
)

// fallback category for imported rows whose vendor the suggestion engine
// does not know; imported rows never carry splits, so without it they would
// land with neither a category nor splits
const (
	uncategorizedGroup = "Uncategorized"
	uncategorizedName  = "Uncategorized"
)

// Repository is the ledger's persistence layer. Reads are side-effect-free
// and safe to call concurrently with unrelated requests.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Migrate(ctx context.Context) error {
	models := []interface{}{
		(*Category)(nil),
		(*Account)(nil),
		(*Transaction)(nil),
		(*Split)(nil),
	}

	for _, model := range models {
		_, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	return nil
}

// CategoryHistory reads every committed, categorized transaction as an
// observation for the suggestion engine. Assembly happens Go-side from two
// selects rather than a join.
func (r *Repository) CategoryHistory(ctx context.Context) ([]categorize.CategorizedTransaction, error) {
	categories, err := r.categoriesByID(ctx)
	if err != nil {
		return nil, err
	}

	var transactions []Transaction
	err = r.db.NewSelect().
		Model(&transactions).
		Where("category_id IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read category history: %w", err)
	}

	history := make([]categorize.CategorizedTransaction, 0, len(transactions))

	for _, t := range transactions {
		category, ok := categories[*t.CategoryID]
		if !ok {
			continue
		}

		history = append(history, categorize.CategorizedTransaction{
			Description: t.Description,
			Payee:       t.Payee,
			CategoryID:  category.ID,
			GroupName:   category.GroupName,
			SubName:     category.Name,
		})
	}

	return history, nil
}

// CategoryIDs maps group/sub name pairs to category ids, for resolving
// rule-table suggestions against the ledger's real categories.
func (r *Repository) CategoryIDs(ctx context.Context) (map[string]int64, error) {
	categories, err := r.categoriesByID(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(categories))
	for _, category := range categories {
		ids[categorize.CategoryKey(category.GroupName, category.Name)] = category.ID
	}

	return ids, nil
}

func (r *Repository) categoriesByID(ctx context.Context) (map[int64]Category, error) {
	var categories []Category
	err := r.db.NewSelect().Model(&categories).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	byID := make(map[int64]Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	return byID, nil
}

func (r *Repository) ActiveAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("active = TRUE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active accounts: %w", err)
	}

	return accounts, nil
}

// StoredTransactionsBetween pre-fetches the duplicate detector's read slice
// for a date range, padded by the caller to cover the possible-match window.
func (r *Repository) StoredTransactionsBetween(ctx context.Context, from, to time.Time) ([]reconcile.StoredTransaction, error) {
	var transactions []Transaction
	err := r.db.NewSelect().
		Model(&transactions).
		Where("transaction_date >= ?", from).
		Where("transaction_date <= ?", to).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored transactions: %w", err)
	}

	stored := make([]reconcile.StoredTransaction, len(transactions))
	for i, t := range transactions {
		stored[i] = reconcile.StoredTransaction{
			ID:          t.ID,
			Date:        t.TransactionDate,
			Amount:      t.Amount,
			Description: t.Description,
		}
	}

	return stored, nil
}

// CommitTransaction persists a transaction plus its optional splits as a
// single all-or-nothing unit. With splits present the splits are validated
// first and the transaction's own category is cleared; a failure after the
// parent insert rolls the parent back rather than leaving an orphan.
func (r *Repository) CommitTransaction(ctx context.Context, transaction *Transaction, splits []Split) error {
	if len(splits) > 0 {
		if err := ValidateSplits(transaction.Description, transaction.Amount, splits); err != nil {
			return err
		}
		transaction.CategoryID = nil
	} else if transaction.CategoryID == nil {
		return fmt.Errorf("transaction %q has neither a category nor splits", transaction.Description)
	}

	transaction.UpdatedAt = time.Now()

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(transaction).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		if len(splits) > 0 {
			for i := range splits {
				splits[i].TransactionID = transaction.ID
			}

			if _, err := tx.NewInsert().Model(&splits).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert splits: %w", err)
			}
		}

		return nil
	})
}

// Unsplit deletes a transaction's split rows and restores a single
// category, atomically, so the transaction never sits with both or neither.
func (r *Repository) Unsplit(ctx context.Context, transactionID, categoryID int64) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Split)(nil)).
			Where("transaction_id = ?", transactionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*Transaction)(nil)).
			Set("category_id = ?", categoryID).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", transactionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to restore category: %w", err)
		}

		return nil
	})
}

// UncategorizedID returns the id of the designated fallback category,
// creating it on first use.
func (r *Repository) UncategorizedID(ctx context.Context) (int64, error) {
	var category Category
	err := r.db.NewSelect().
		Model(&category).
		Where("group_name = ?", uncategorizedGroup).
		Where("name = ?", uncategorizedName).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return category.ID, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up fallback category: %w", err)
	}

	category = Category{GroupName: uncategorizedGroup, Name: uncategorizedName, Type: "expense"}
	if _, err := r.db.NewInsert().Model(&category).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to create fallback category: %w", err)
	}

	return category.ID, nil
}

// applyFallbackCategory gives every category-less transaction the fallback
// id, keeping the category-or-splits rule intact for batch imports, which
// never carry splits. Returns how many rows fell back.
func applyFallbackCategory(transactions []Transaction, fallbackID int64) int {
	assigned := 0

	for i := range transactions {
		if transactions[i].CategoryID != nil {
			continue
		}

		id := fallbackID
		transactions[i].CategoryID = &id
		assigned++
	}

	return assigned
}

// CommitBatch inserts imported transactions, skipping any whose remote id is
// already stored. Re-importing an already-synced row is expected and
// recoverable, never a batch abort. Rows without a suggested category are
// committed under the Uncategorized fallback so every stored transaction has
// a category. Returns imported and skipped counts.
func (r *Repository) CommitBatch(ctx context.Context, transactions []Transaction) (int, int, error) {
	if len(transactions) == 0 {
		return 0, 0, nil
	}

	needsFallback := false
	for i := range transactions {
		if transactions[i].CategoryID == nil {
			needsFallback = true
			break
		}
	}

	if needsFallback {
		fallback, err := r.UncategorizedID(ctx)
		if err != nil {
			return 0, 0, err
		}

		applyFallbackCategory(transactions, fallback)
	}

	now := time.Now()
	for i := range transactions {
		transactions[i].UpdatedAt = now
	}

	res, err := r.db.NewInsert().
		Model(&transactions).
		On("CONFLICT (remote_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("error writing transactions to sql: %w", err)
	}

	imported64, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	imported := int(imported64)

	return imported, len(transactions) - imported, nil
}

// UpsertAccounts refreshes synced account state, keyed by remote id.
func (r *Repository) UpsertAccounts(ctx context.Context, accounts []Account) error {
	if len(accounts) == 0 {
		return nil
	}

	now := time.Now()
	for i := range accounts {
		accounts[i].UpdatedAt = now
	}

	_, err := r.db.NewInsert().
		Model(&accounts).
		On("CONFLICT (remote_id) DO UPDATE").
		Set(postgresutils.TableSetString(r.db, (*Account)(nil), "id", "remote_id")).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error writing accounts to sql: %w", err)
	}

	return nil
}
