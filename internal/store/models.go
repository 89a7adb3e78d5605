package store

import (
	"database/sql"
	"time"
)

// Member is a row in medlem.
type Member struct {
	ID                   int64
	BirthDate            string
	FirstName            string
	LastName             string
	Email                sql.NullString
	Mobile               string
	Phone                string
	Address              string
	PostalCode           string
	City                 string
	Comment              string
	GDPRConsent          bool
	AcceptsCommunication bool
	Company              bool
	LifeMember           bool
	WelcomeSent          bool
	IsAdmin              bool
	PasswordHash         sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FullName returns "First Last".
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// HasPassword reports whether the member has activated a login.
func (m Member) HasPassword() bool {
	return m.PasswordHash.Valid && m.PasswordHash.String != ""
}

// Role is a row in roll.
type Role struct {
	ID      int64
	Name    string
	Comment string
}

// MemberRole links a member to a role name.
type MemberRole struct {
	MemberID int64
	RoleID   int64
	RoleName string
}

// MemberSummary is the short member form used in role and sailing lists.
type MemberSummary struct {
	ID        int64
	FirstName string
	LastName  string
	RoleID    int64
	RoleName  string
}

// Sailing is a row in segling.
type Sailing struct {
	ID        int64
	StartDate string
	EndDate   string
	Crew      string
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Participant is a member on a sailing with an optional role.
type Participant struct {
	SailingID int64
	MemberID  int64
	FirstName string
	LastName  string
	RoleID    sql.NullInt64
	RoleName  sql.NullString
	// Paid is true when the member has a payment for the sailing's start year.
	Paid bool
}

// Payment is a row in betalning.
type Payment struct {
	ID        int64
	MemberID  int64
	Amount    float64
	Date      string
	Year      int64
	Comment   string
	CreatedAt time.Time
}

// PaymentWithMember is a payment joined with the member's name.
type PaymentWithMember struct {
	Payment
	FirstName sql.NullString
	LastName  sql.NullString
}

// AuthToken is a row in auth_token.
type AuthToken struct {
	ID           int64
	Email        string
	Token        string
	Type         string
	PasswordHash sql.NullString
	CreatedAt    time.Time
}

// Event is a row in events.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}
