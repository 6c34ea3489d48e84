package models

import "strings"

// MemberCode identifies one of the two fixed household members.
type MemberCode string

const (
	// MemberOne is the member who created the household.
	MemberOne MemberCode = "user_1"
	// MemberTwo is the second household member.
	MemberTwo MemberCode = "user_2"
)

// MemberCodes lists both member codes in stable order.
func MemberCodes() [2]MemberCode {
	return [2]MemberCode{MemberOne, MemberTwo}
}

// ValidMemberCode reports whether code names one of the two members.
func ValidMemberCode(code MemberCode) bool {
	return code == MemberOne || code == MemberTwo
}

// Other returns the member code of the other household member.
func (c MemberCode) Other() MemberCode {
	if c == MemberOne {
		return MemberTwo
	}
	return MemberOne
}

// Household represents a fixed pair of members sharing expenses.
type Household struct {
	// ID is the unique identifier for the household (UUID format).
	ID string

	// Code is the short join code shown to members (6 chars, A-Z and digits).
	Code string

	// Name is the display name of the household (e.g., "Maple Street").
	Name string

	// MemberOneName and MemberTwoName are the display names behind the two
	// member codes.
	MemberOneName string
	MemberTwoName string

	// PasscodeHash is the bcrypt hash of the shared passcode.
	PasscodeHash string

	// CreatedAt is the Unix timestamp when the household was created.
	CreatedAt int64
}

// MemberNames maps each member code to its display name.
func (h *Household) MemberNames() map[MemberCode]string {
	return map[MemberCode]string{
		MemberOne: h.MemberOneName,
		MemberTwo: h.MemberTwoName,
	}
}

// NameFor returns the display name for a member code, falling back to the
// code itself for anything unrecognized.
func (h *Household) NameFor(code MemberCode) string {
	switch code {
	case MemberOne:
		return h.MemberOneName
	case MemberTwo:
		return h.MemberTwoName
	}
	return string(code)
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveMember maps a member display name to its code, case-insensitively.
// Returns "" when the name matches neither member.
func (h *Household) ResolveMember(name string) MemberCode {
	normalized := foldName(name)
	if normalized == "" {
		return ""
	}
	if foldName(h.MemberOneName) == normalized {
		return MemberOne
	}
	if foldName(h.MemberTwoName) == normalized {
		return MemberTwo
	}
	return ""
}
