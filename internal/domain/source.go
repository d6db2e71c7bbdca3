package domain

import (
	"fmt"
	"time"
)

// SourceKind represents the kind of payload a knowledge source carries
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindURL  SourceKind = "url"
	SourceKindText SourceKind = "text"
)

// SourceStatus represents the ingestion lifecycle status of a knowledge source
type SourceStatus string

const (
	SourceStatusPending    SourceStatus = "pending"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusReady      SourceStatus = "ready"
	SourceStatusFailed     SourceStatus = "failed"
)

// KnowledgeSource represents one ingestible artifact belonging to a tenant.
// Exactly one of FileKey, URL, or RawText is populated, matching Kind.
type KnowledgeSource struct {
	ID           string
	TenantID     string
	Title        string
	Kind         SourceKind
	Status       SourceStatus
	FileKey      string // blob-store key for file payloads
	FileName     string // original filename, drives extension dispatch
	URL          string
	RawText      string
	Metadata     map[string]string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewKnowledgeSource creates a new KnowledgeSource in the pending state
func NewKnowledgeSource(id, tenantID, title string, kind SourceKind, createdAt time.Time) *KnowledgeSource {
	return &KnowledgeSource{
		ID:        id,
		TenantID:  tenantID,
		Title:     title,
		Kind:      kind,
		Status:    SourceStatusPending,
		Metadata:  map[string]string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateKnowledgeSource validates a KnowledgeSource instance
func ValidateKnowledgeSource(s *KnowledgeSource) error {
	if s == nil {
		return fmt.Errorf("knowledge source cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("knowledge source ID is required")
	}

	if s.TenantID == "" {
		return fmt.Errorf("knowledge source TenantID is required")
	}

	if s.Title == "" {
		return fmt.Errorf("knowledge source Title is required")
	}

	if !isValidSourceKind(s.Kind) {
		return fmt.Errorf("knowledge source Kind is invalid: %s", s.Kind)
	}

	if !isValidSourceStatus(s.Status) {
		return fmt.Errorf("knowledge source Status is invalid: %s", s.Status)
	}

	switch s.Kind {
	case SourceKindFile:
		if s.FileKey == "" {
			return fmt.Errorf("knowledge source FileKey is required for file kind")
		}
	case SourceKindURL:
		if s.URL == "" {
			return fmt.Errorf("knowledge source URL is required for url kind")
		}
	case SourceKindText:
		// raw text may legitimately be blank; ingestion treats it as zero chunks
	}

	return nil
}

// CanTransition reports whether a status transition is allowed. Ingestion
// claims a source from any settled status, so ready and failed sources can be
// re-ingested. Terminal statuses are only reachable from processing, and a
// claimed source can be released back to pending for a later retry.
func CanTransition(from, to SourceStatus) bool {
	switch to {
	case SourceStatusProcessing:
		return from != SourceStatusProcessing
	case SourceStatusReady, SourceStatusFailed, SourceStatusPending:
		return from == SourceStatusProcessing
	}
	return false
}

// TransitionSources lists the statuses a source may hold immediately before
// moving to the given status.
func TransitionSources(to SourceStatus) []SourceStatus {
	all := []SourceStatus{SourceStatusPending, SourceStatusProcessing, SourceStatusReady, SourceStatusFailed}
	var from []SourceStatus
	for _, s := range all {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// isValidSourceKind checks if a SourceKind is valid
func isValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceKindFile, SourceKindURL, SourceKindText:
		return true
	}
	return false
}

// isValidSourceStatus checks if a SourceStatus is valid
func isValidSourceStatus(s SourceStatus) bool {
	switch s {
	case SourceStatusPending, SourceStatusProcessing, SourceStatusReady, SourceStatusFailed:
		return true
	}
	return false
}
