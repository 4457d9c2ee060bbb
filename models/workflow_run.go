package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a workflow run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// RunKind identifies which record a run resolves
type RunKind string

const (
	RunKindAnalysis RunKind = "analysis"
	RunKindDigest   RunKind = "digest"
)

// Step names, in workflow order
const (
	StepExistenceCheck = "Existence Check"
	StepGeneration     = "Generation"
	StepNormalization  = "Normalization"
	StepPersistence    = "Persistence"
)

// RunStep represents one stage of a workflow run
type RunStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed", "skipped"
	Description string `json:"description,omitempty"`
}

// RunSteps represents the ordered stages of a run
type RunSteps []RunStep

// NewRunSteps returns every step in pending state
func NewRunSteps() RunSteps {
	names := []string{StepExistenceCheck, StepGeneration, StepNormalization, StepPersistence}
	steps := make(RunSteps, len(names))
	for i, name := range names {
		steps[i] = RunStep{Name: name, Status: string(RunStatusPending)}
	}
	return steps
}

// Set updates the named step
func (s RunSteps) Set(name, status, description string) {
	for i := range s {
		if s[i].Name == name {
			s[i].Status = status
			s[i].Description = description
			return
		}
	}
}

// Get returns the named step
func (s RunSteps) Get(name string) (RunStep, bool) {
	for _, step := range s {
		if step.Name == name {
			return step, true
		}
	}
	return RunStep{}, false
}

// Value implements driver.Valuer for JSONB
func (s RunSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *RunSteps) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	}

	if len(data) == 0 {
		*s = make(RunSteps, 0)
		return nil
	}
	return json.Unmarshal(data, s)
}

// WorkflowRun records the progress of one view resolving one record
type WorkflowRun struct {
	ID           uuid.UUID  `json:"id"`
	ViewID       string     `json:"view_id"`
	Kind         RunKind    `json:"kind"`
	DLCitationNo string     `json:"dl_citation_no"`
	Status       RunStatus  `json:"status"`
	CurrentStep  *string    `json:"current_step,omitempty"`
	Steps        RunSteps   `json:"steps"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a copy whose steps can be modified independently
func (r *WorkflowRun) Clone() *WorkflowRun {
	c := *r
	c.Steps = append(RunSteps(nil), r.Steps...)
	return &c
}
