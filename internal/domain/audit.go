package domain

import "time"

// AuditRecord is one persisted authorization decision.
type AuditRecord struct {
	ID        string
	EventTime time.Time
	AppID     string
	User      string
	Groups    []string
	Operation string
	Access    string
	Resource  string
	Allowed   bool
	PolicyID  int64
}
