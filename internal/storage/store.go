// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aferrand/housetab/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguousHousehold is returned when a household name lookup matches
	// more than one household.
	ErrAmbiguousHousehold = errors.New("multiple households share this name")
)

// Store defines the persistence operations the API layer needs. The ledger
// itself never touches this interface; it works on receipt values fetched
// through it.
type Store interface {
	// CreateHousehold persists a new household. The ID, Code, and CreatedAt
	// fields are populated by the store when unset.
	CreateHousehold(ctx context.Context, household *models.Household) error

	// GetHousehold retrieves a household by ID.
	GetHousehold(ctx context.Context, id string) (*models.Household, error)

	// FindHouseholdByName looks a household up by display name,
	// case-insensitively. Returns ErrNotFound when no household matches and
	// ErrAmbiguousHousehold when several do.
	FindHouseholdByName(ctx context.Context, name string) (*models.Household, error)

	// CreateReceipt persists a new receipt. ID and UploadedAt are populated
	// by the store when unset.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error

	// GetReceipt retrieves one receipt scoped to a household.
	GetReceipt(ctx context.Context, householdID, receiptID string) (*models.Receipt, error)

	// UpdateReceiptItems replaces a receipt's line items and saved flag.
	UpdateReceiptItems(ctx context.Context, householdID, receiptID string, items []models.LineItem, saved bool) error

	// ListReceipts returns every receipt for a household regardless of saved
	// state, newest expense first.
	ListReceipts(ctx context.Context, householdID string) ([]models.Receipt, error)

	// ListSavedReceipts returns the household's finalized receipts with an
	// expense date in [from, to].
	ListSavedReceipts(ctx context.Context, householdID string, from, to time.Time) ([]models.Receipt, error)

	// ListOpenReceipts returns the household's finalized, not-yet-settled
	// receipts with an expense date in [from, to].
	ListOpenReceipts(ctx context.Context, householdID string, from, to time.Time) ([]models.Receipt, error)

	// SettlePeriod marks every open receipt in [from, to] settled and
	// appends the given notifications as one atomic unit, so a concurrent
	// reader never observes a partially settled period.
	SettlePeriod(ctx context.Context, householdID string, from, to time.Time, settledAt time.Time, notifications []models.Notification) error

	// AppendNotification adds one notification to the household's log.
	AppendNotification(ctx context.Context, notification *models.Notification) error

	// LatestNotifications returns the most recent notification per member.
	// Members with no notifications are absent from the map.
	LatestNotifications(ctx context.Context, householdID string) (map[models.MemberCode]models.Notification, error)

	// Close releases any resources held by the store.
	Close() error
}
