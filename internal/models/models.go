package models

import (
	"encoding/json"
	"time"
)

// User is the principal directory projection. Rows are provisioned by the
// user-management side of the system; this service only reads them.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"column:password;not null" json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	DepartmentID *uint  `gorm:"index"                    json:"department_id"`
}

// RefreshToken holds one user's live session. The unique index on UserID is
// what enforces single-session-per-user; liveness is ExpiresAt > now, there
// is no revoked flag.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"       json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	TokenHash string    `gorm:"index;not null"   json:"-"`
	ExpiresAt time.Time `gorm:"not null"         json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Audit actions for credential mutations.
const (
	AuditActionCreate    = "CREATE"
	AuditActionUpdate    = "UPDATE"
	AuditActionDelete    = "DELETE"
	AuditActionRevokeAll = "REVOKE_ALL"
)

// AuditLog is append-only. UserID is the acting user, nil for
// system-initiated mutations. TargetID is nil for set-oriented actions.
type AuditLog struct {
	ID          uint            `gorm:"primaryKey"     json:"id"`
	UserID      *uint           `gorm:"index"          json:"user_id"`
	Action      string          `gorm:"not null"       json:"action"`
	TargetTable string          `gorm:"not null"       json:"target_table"`
	TargetID    *uint           `json:"target_id"`
	OldData     json.RawMessage `gorm:"type:jsonb"     json:"old_data"`
	NewData     json.RawMessage `gorm:"type:jsonb"     json:"new_data"`
	CreatedAt   time.Time       `json:"created_at"`
}
