package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aferrand/housetab/internal/models"
	"github.com/aferrand/housetab/internal/storage"
)

const receiptColumns = `id, household_id, uploaded_by, expense_date, vendor, currency, category,
	subtotal, tax, tip, total, items, raw_text, saved, settled_at, uploaded_at`

// CreateReceipt persists a new receipt to the database.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.UploadedAt.IsZero() {
		receipt.UploadedAt = time.Now()
	}
	if receipt.Category == "" {
		receipt.Category = models.CategoryOther
	}

	itemsJSON, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	var settledAt any
	if receipt.SettledAt != nil {
		settledAt = receipt.SettledAt.Unix()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO receipts (`+receiptColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.HouseholdID, string(receipt.UploadedBy),
		formatDate(receipt.ExpenseDate), receipt.Vendor, receipt.Currency, receipt.Category,
		decimalArg(receipt.Subtotal), decimalArg(receipt.Tax), decimalArg(receipt.Tip), decimalArg(receipt.Total),
		string(itemsJSON), receipt.RawText, receipt.Saved, settledAt, receipt.UploadedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	return nil
}

type receiptScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row receiptScanner) (models.Receipt, error) {
	var (
		receipt     models.Receipt
		uploadedBy  string
		expenseDate string
		subtotal    sql.NullString
		tax         sql.NullString
		tip         sql.NullString
		total       sql.NullString
		itemsJSON   string
		settledAt   sql.NullInt64
		uploadedAt  int64
	)

	err := row.Scan(
		&receipt.ID, &receipt.HouseholdID, &uploadedBy, &expenseDate,
		&receipt.Vendor, &receipt.Currency, &receipt.Category,
		&subtotal, &tax, &tip, &total,
		&itemsJSON, &receipt.RawText, &receipt.Saved, &settledAt, &uploadedAt,
	)
	if err != nil {
		return models.Receipt{}, err
	}

	receipt.UploadedBy = models.MemberCode(uploadedBy)
	receipt.ExpenseDate = parseDate(expenseDate)
	receipt.Subtotal = scanDecimal(subtotal)
	receipt.Tax = scanDecimal(tax)
	receipt.Tip = scanDecimal(tip)
	receipt.Total = scanDecimal(total)
	receipt.UploadedAt = time.Unix(uploadedAt, 0).UTC()
	if settledAt.Valid {
		t := time.Unix(settledAt.Int64, 0).UTC()
		receipt.SettledAt = &t
	}

	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &receipt.Items); err != nil {
			return models.Receipt{}, fmt.Errorf("failed to decode items: %w", err)
		}
	}

	return receipt, nil
}

// GetReceipt retrieves one receipt scoped to a household.
func (s *SQLiteStore) GetReceipt(ctx context.Context, householdID, receiptID string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = ? AND household_id = ?`,
		receiptID, householdID,
	)

	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

// UpdateReceiptItems replaces a receipt's line items and saved flag.
func (s *SQLiteStore) UpdateReceiptItems(ctx context.Context, householdID, receiptID string, items []models.LineItem, saved bool) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE receipts SET items = ?, saved = ? WHERE id = ? AND household_id = ?`,
		string(itemsJSON), saved, receiptID, householdID,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) queryReceipts(ctx context.Context, query string, args ...any) ([]models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// ListReceipts returns every receipt for a household, newest expense first.
func (s *SQLiteStore) ListReceipts(ctx context.Context, householdID string) ([]models.Receipt, error) {
	return s.queryReceipts(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE household_id = ?
		 ORDER BY expense_date DESC, uploaded_at DESC`,
		householdID,
	)
}

// ListSavedReceipts returns finalized receipts with an expense date in [from, to].
func (s *SQLiteStore) ListSavedReceipts(ctx context.Context, householdID string, from, to time.Time) ([]models.Receipt, error) {
	return s.queryReceipts(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE household_id = ? AND saved = 1 AND expense_date BETWEEN ? AND ?
		 ORDER BY expense_date DESC, uploaded_at DESC`,
		householdID, formatDate(from), formatDate(to),
	)
}

// ListOpenReceipts returns finalized, unsettled receipts in [from, to].
func (s *SQLiteStore) ListOpenReceipts(ctx context.Context, householdID string, from, to time.Time) ([]models.Receipt, error) {
	return s.queryReceipts(ctx,
		`SELECT `+receiptColumns+` FROM receipts
		 WHERE household_id = ? AND saved = 1 AND settled_at IS NULL AND expense_date BETWEEN ? AND ?
		 ORDER BY expense_date DESC, uploaded_at DESC`,
		householdID, formatDate(from), formatDate(to),
	)
}

// SettlePeriod closes every open receipt in [from, to] and appends the
// settlement notifications in a single transaction.
func (s *SQLiteStore) SettlePeriod(ctx context.Context, householdID string, from, to time.Time, settledAt time.Time, notifications []models.Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE receipts SET settled_at = ?
		 WHERE household_id = ? AND saved = 1 AND settled_at IS NULL AND expense_date BETWEEN ? AND ?`,
		settledAt.Unix(), householdID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return fmt.Errorf("failed to mark receipts settled: %w", err)
	}

	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt == 0 {
			n.CreatedAt = settledAt.Unix()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications (id, household_id, member_code, message, read, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, householdID, string(n.MemberCode), n.Message, n.Read, n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}
