package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aferrand/housetab/internal/models"
	"github.com/aferrand/housetab/internal/storage"
)

// CreateHousehold persists a new household to the database.
func (s *SQLiteStore) CreateHousehold(ctx context.Context, household *models.Household) error {
	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	if household.CreatedAt == 0 {
		household.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO households (id, code, name, member_one_name, member_two_name, passcode_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		household.ID, household.Code, household.Name,
		household.MemberOneName, household.MemberTwoName,
		household.PasscodeHash, household.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}

	return nil
}

const householdColumns = "id, code, name, member_one_name, member_two_name, passcode_hash, created_at"

func scanHousehold(row *sql.Row) (*models.Household, error) {
	household := &models.Household{}
	err := row.Scan(
		&household.ID, &household.Code, &household.Name,
		&household.MemberOneName, &household.MemberTwoName,
		&household.PasscodeHash, &household.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan household: %w", err)
	}
	return household, nil
}

// GetHousehold retrieves a household by ID.
func (s *SQLiteStore) GetHousehold(ctx context.Context, id string) (*models.Household, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+householdColumns+" FROM households WHERE id = ?", id)
	return scanHousehold(row)
}

// FindHouseholdByName looks a household up by display name, case-insensitively.
func (s *SQLiteStore) FindHouseholdByName(ctx context.Context, name string) (*models.Household, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM households WHERE name = ? COLLATE NOCASE", name,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count households by name: %w", err)
	}
	if count == 0 {
		return nil, storage.ErrNotFound
	}
	if count > 1 {
		return nil, storage.ErrAmbiguousHousehold
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+householdColumns+" FROM households WHERE name = ? COLLATE NOCASE", name)
	return scanHousehold(row)
}
