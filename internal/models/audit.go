package models

import "time"

// CorrectionLog actions recorded in the audit trail.
const (
	AuditActionCorrectionSubmit  = "CORRECTION_SUBMIT"
	AuditActionCorrectionApprove = "CORRECTION_APPROVE"
	AuditActionCorrectionReject  = "CORRECTION_REJECT"
	AuditActionDirectEdit        = "DIRECT_EDIT"
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionPasswordChange    = "PASSWORD_CHANGE"
)

// CorrectionLog is an append-only audit record of who changed what. Writes
// are best-effort: a failed insert is logged and swallowed so it can never
// roll back the primary transaction.
type CorrectionLog struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	Action       string    `db:"action" json:"action"`
	Resource     string    `db:"resource" json:"resource"`
	ResourceID   *string   `db:"resource_id" json:"resource_id,omitempty"`
	BeforeValues []byte    `db:"before_values" json:"before_values,omitempty"`
	AfterValues  []byte    `db:"after_values" json:"after_values,omitempty"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	UserAgent    string    `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
