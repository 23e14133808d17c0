package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProtocolStatus tracks the lifecycle of a project's screening protocol.
type ProtocolStatus string

const (
	ProtocolNotUploaded ProtocolStatus = "not_uploaded"
	ProtocolExtracted   ProtocolStatus = "extracted"
	ProtocolApproved    ProtocolStatus = "approved"
)

// ValidProtocolStatus reports whether s is one of the known statuses.
func ValidProtocolStatus(s ProtocolStatus) bool {
	switch s {
	case ProtocolNotUploaded, ProtocolExtracted, ProtocolApproved:
		return true
	}
	return false
}

// Project is one systematic review effort. It owns the protocol
// configuration that drives screening; the screening engine reads the
// configuration but never mutates it.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`

	// ProtocolConfig is the structured inclusion/exclusion rule document,
	// kept as raw JSON so it can be forwarded verbatim to the reasoning
	// prompt. Guard-relevant sections are parsed on demand with
	// ParseProtocolConfig.
	ProtocolConfig json.RawMessage `json:"protocol_config,omitempty"`
	ProtocolStatus ProtocolStatus  `json:"protocol_status"`

	CreatedAt time.Time `json:"created_at"`
}

// HasProtocol reports whether a non-empty protocol configuration is attached.
func (p *Project) HasProtocol() bool {
	cfg := bytes.TrimSpace(p.ProtocolConfig)
	if len(cfg) == 0 {
		return false
	}
	switch string(cfg) {
	case "null", "{}":
		return false
	}
	return true
}
