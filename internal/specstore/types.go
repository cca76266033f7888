// Package specstore is the domain model at the center of specforge:
// specifications, their user stories and EARS requirements, and their
// hierarchical task trees, persisted as one spec.json plus three
// rendered markdown companions per specification. Struct layout and
// the map-indexed in-memory store with an RWMutex follow the same
// catalog shape as orchestration/catalog.go; persistence goes through
// internal/atomicio and path validation through internal/sandbox.
package specstore

import "time"

// Status is a specification's lifecycle status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Phase is a specification's workflow phase.
type Phase string

const (
	PhaseRequirements          Phase = "requirements"
	PhaseDesign                Phase = "design"
	PhaseImplementationPlanning Phase = "implementation_planning"
	PhaseExecution             Phase = "execution"
	PhaseReview                Phase = "review"
	PhaseCompleted             Phase = "completed"
)

// legalTransitions is the directed phase-transition edge table; all
// other (from, to) pairs are illegal.
var legalTransitions = map[Phase][]Phase{
	PhaseRequirements:          {PhaseDesign},
	PhaseDesign:                {PhaseImplementationPlanning},
	PhaseImplementationPlanning: {PhaseExecution},
	PhaseExecution:             {PhaseReview, PhaseCompleted},
	PhaseReview:                {PhaseRequirements, PhaseCompleted},
}

// CanTransition reports whether from->to is a legal workflow edge.
func CanTransition(from, to Phase) bool {
	for _, candidate := range legalTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TaskStatus is a task's completion status.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// EARSRequirement is a single "<condition> THE SYSTEM SHALL
// <system_response>" sentence, identified as <story-id>-RNN.
type EARSRequirement struct {
	ID             string `json:"id"`
	Condition      string `json:"condition"`
	SystemResponse string `json:"system_response"`
}

// Sentence renders the requirement as a single EARS sentence. Condition
// already carries its EARS keyword verbatim (e.g. "WHEN user submits an
// item", "WHILE upload is in progress") — only a ubiquitous requirement
// has no condition, in which case the response stands alone.
func (r EARSRequirement) Sentence() string {
	if r.Condition == "" {
		return "THE SYSTEM SHALL " + r.SystemResponse
	}
	return r.Condition + " THE SYSTEM SHALL " + r.SystemResponse
}

// UserStory is identified as US-NNN within its specification.
type UserStory struct {
	ID           string            `json:"id"`
	Actor        string            `json:"actor"`
	Desire       string            `json:"desire"`
	Benefit      string            `json:"benefit"`
	Requirements []EARSRequirement `json:"requirements"`
}

// Sentence renders the story as "As a <actor>, I want <desire>, so that <benefit>."
func (s UserStory) Sentence() string {
	return "As a " + s.Actor + ", I want " + s.Desire + ", so that " + s.Benefit + "."
}

// Task is a node in a specification's hierarchical task tree.
type Task struct {
	ID             string     `json:"id"`
	Number         string     `json:"number"` // e.g. "1", "2.1", "3.2.1"
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         TaskStatus `json:"status"`
	ParentID       string     `json:"parent_id,omitempty"`
	Subtasks       []*Task    `json:"subtasks,omitempty"`
	Dependencies   []string   `json:"dependencies,omitempty"`
	RequirementIDs []string   `json:"requirement_ids,omitempty"`
	EstimatedHours float64    `json:"estimated_hours,omitempty"`
	ActualHours    float64    `json:"actual_hours,omitempty"`
}

// Design is the free-form design document attached to a specification.
type Design struct {
	Architecture     string   `json:"architecture"`
	Components       []string `json:"components,omitempty"`
	DataModel        string   `json:"data_model"`
	SequenceDiagrams []string `json:"sequence_diagrams,omitempty"`
}

// Specification is the root aggregate: a slug-identified unit of work
// owning its user stories, tasks, and design document.
type Specification struct {
	Slug      string                 `json:"slug"`
	Name      string                 `json:"name"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Status    Status                 `json:"status"`
	Phase     Phase                  `json:"phase"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Stories   []*UserStory           `json:"stories"`
	Design    Design                 `json:"design"`
	Tasks     []*Task                `json:"tasks"`

	// ProjectType and DetectedStack record the wizard/auto-detection
	// outcome when a specification is created against an existing
	// project, not the core queue's concern but carried for templates.
	ProjectType   string   `json:"project_type,omitempty"`
	DetectedStack []string `json:"detected_stack,omitempty"`
}

// CompletionStats summarizes a task tree's progress.
type CompletionStats struct {
	Total      int
	Completed  int
	InProgress int
	Pending    int
}

// Percentage returns completed/total as 0-100, or 0 for an empty tree.
func (c CompletionStats) Percentage() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total) * 100
}
