package models

// Notification represents a message delivered to one household member, such
// as a payment reminder produced by a settlement.
type Notification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string

	// HouseholdID is the household this notification belongs to.
	HouseholdID string

	// MemberCode is the member the notification is addressed to.
	MemberCode MemberCode

	// Message is the user-facing notification text.
	Message string

	// Read marks whether the member has seen the notification.
	Read bool

	// CreatedAt is the Unix timestamp when the notification was appended.
	CreatedAt int64
}
