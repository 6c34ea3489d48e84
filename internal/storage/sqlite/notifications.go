package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aferrand/housetab/internal/models"
)

// AppendNotification adds one notification to the household's log.
func (s *SQLiteStore) AppendNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt == 0 {
		notification.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, household_id, member_code, message, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		notification.ID, notification.HouseholdID, string(notification.MemberCode),
		notification.Message, notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// LatestNotifications returns the most recent notification per member.
func (s *SQLiteStore) LatestNotifications(ctx context.Context, householdID string) (map[models.MemberCode]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.household_id, n.member_code, n.message, n.read, n.created_at
		 FROM notifications n
		 JOIN (
		     SELECT member_code, MAX(created_at) AS latest
		     FROM notifications
		     WHERE household_id = ?
		     GROUP BY member_code
		 ) last ON n.member_code = last.member_code AND n.created_at = last.latest
		 WHERE n.household_id = ?`,
		householdID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest notifications: %w", err)
	}
	defer rows.Close()

	latest := make(map[models.MemberCode]models.Notification)
	for rows.Next() {
		var (
			n    models.Notification
			code string
		)
		if err := rows.Scan(&n.ID, &n.HouseholdID, &code, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.MemberCode = models.MemberCode(code)
		// Ties on created_at resolve to either row; one per member either way.
		latest[n.MemberCode] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return latest, nil
}
