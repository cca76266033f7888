package specstore

import (
	"fmt"

	"github.com/specforged/specforge/internal/specerrors"
)

// SetProjectMetadata records the wizard's detected or chosen project
// type and technology stack against an existing specification.
func (s *Store) SetProjectMetadata(slug, projectType string, stack []string) error {
	return s.mutate(slug, func(spec *Specification) error {
		spec.ProjectType = projectType
		spec.DetectedStack = stack
		return nil
	})
}

// AddUserStory appends a new user story with an auto-assigned US-NNN id.
func (s *Store) AddUserStory(slug, actor, desire, benefit string) (*UserStory, error) {
	var story *UserStory
	err := s.mutate(slug, func(spec *Specification) error {
		story = &UserStory{
			ID:      fmt.Sprintf("US-%03d", len(spec.Stories)+1),
			Actor:   actor,
			Desire:  desire,
			Benefit: benefit,
		}
		spec.Stories = append(spec.Stories, story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// AddRequirement appends an EARS requirement to storyID, auto-assigning
// its <story-id>-RNN id.
func (s *Store) AddRequirement(slug, storyID, condition, systemResponse string) (*EARSRequirement, error) {
	var req *EARSRequirement
	err := s.mutate(slug, func(spec *Specification) error {
		story := findStory(spec.Stories, storyID)
		if story == nil {
			return specerrors.New("specstore.AddRequirement", specerrors.ErrNotFound, "no such user story: "+storyID).WithID(storyID)
		}
		req = &EARSRequirement{
			ID:             fmt.Sprintf("%s-R%02d", storyID, len(story.Requirements)+1),
			Condition:      condition,
			SystemResponse: systemResponse,
		}
		story.Requirements = append(story.Requirements, *req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func findStory(stories []*UserStory, id string) *UserStory {
	for _, story := range stories {
		if story.ID == id {
			return story
		}
	}
	return nil
}

// AddTask appends a new root-level task (auto id + number) carrying
// the given dependencies, then renumbers the tree.
func (s *Store) AddTask(slug, title, description string, dependencies []string) (*Task, error) {
	var task *Task
	err := s.mutate(slug, func(spec *Specification) error {
		task = &Task{
			ID:           newTaskID(),
			Title:        title,
			Description:  description,
			Status:       TaskPending,
			Dependencies: dependencies,
		}
		spec.Tasks = append(spec.Tasks, task)
		renumber(spec.Tasks, "", "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetTaskStatus sets the status of the task identified by its rendered
// hierarchical number and triggers ancestor rollup.
func (s *Store) SetTaskStatus(slug, taskNumber string, status TaskStatus) error {
	return s.mutate(slug, func(spec *Specification) error {
		t := findTaskByNumber(spec.Tasks, taskNumber)
		if t == nil {
			return specerrors.New("specstore.SetTaskStatus", specerrors.ErrNotFound, "no such task: "+taskNumber).WithID(taskNumber)
		}
		t.Status = status
		rollup(spec.Tasks, t.ID)
		return nil
	})
}

// ExecuteTask transitions taskID to completed, gated on all declared
// dependencies already being completed.
func (s *Store) ExecuteTask(slug, taskID string) error {
	return s.mutate(slug, func(spec *Specification) error {
		t := findTask(spec.Tasks, taskID)
		if t == nil {
			return specerrors.New("specstore.ExecuteTask", specerrors.ErrNotFound, "no such task: "+taskID).WithID(taskID)
		}
		if !dependenciesSatisfied(spec.Tasks, t.Dependencies) {
			return specerrors.New("specstore.ExecuteTask", specerrors.ErrConflict, "task dependencies not all completed: "+taskID).WithID(taskID)
		}
		t.Status = TaskCompleted
		rollup(spec.Tasks, t.ID)
		return nil
	})
}

// TransitionPhase enforces the legal phase-transition edge table.
func (s *Store) TransitionPhase(slug string, target Phase) error {
	return s.mutate(slug, func(spec *Specification) error {
		if !CanTransition(spec.Phase, target) {
			return specerrors.New("specstore.TransitionPhase", specerrors.ErrValidation,
				fmt.Sprintf("illegal phase transition %s -> %s", spec.Phase, target))
		}
		spec.Phase = target
		if target == PhaseCompleted {
			spec.Status = StatusCompleted
		} else if spec.Status == StatusDraft {
			spec.Status = StatusActive
		}
		return nil
	})
}

// UpdateDesign merges non-empty fields of patch into the specification's
// design document.
func (s *Store) UpdateDesign(slug string, patch Design) error {
	return s.mutate(slug, func(spec *Specification) error {
		if patch.Architecture != "" {
			spec.Design.Architecture = patch.Architecture
		}
		if patch.DataModel != "" {
			spec.Design.DataModel = patch.DataModel
		}
		if len(patch.Components) > 0 {
			spec.Design.Components = patch.Components
		}
		if len(patch.SequenceDiagrams) > 0 {
			spec.Design.SequenceDiagrams = patch.SequenceDiagrams
		}
		return nil
	})
}

// RegeneratePlan deterministically derives tasks from the current user
// stories and their requirements; the design is not consulted.
// Regeneration preserves the completion
// status of any task whose title survives by exact match in the new
// generation; all others are treated as new (pending).
func (s *Store) RegeneratePlan(slug string) error {
	return s.mutate(slug, func(spec *Specification) error {
		generated := generatePlan(spec)

		prior := map[string]TaskStatus{}
		var collect func([]*Task)
		collect = func(tasks []*Task) {
			for _, t := range tasks {
				prior[t.Title] = t.Status
				collect(t.Subtasks)
			}
		}
		collect(spec.Tasks)

		var apply func([]*Task)
		apply = func(tasks []*Task) {
			for _, t := range tasks {
				if status, ok := prior[t.Title]; ok {
					t.Status = status
				}
				apply(t.Subtasks)
			}
		}
		apply(generated)

		spec.Tasks = generated
		renumber(spec.Tasks, "", "")
		return nil
	})
}

// generatePlan derives one task per user story (covering its
// requirements), in story order; the design is not read. Task IDs are
// freshly generated on every run, but given identical stories two runs
// produce identical titles and numbering.
func generatePlan(spec *Specification) []*Task {
	tasks := make([]*Task, 0, len(spec.Stories))
	for _, story := range spec.Stories {
		t := &Task{
			ID:          newTaskID(),
			Title:       fmt.Sprintf("Implement %s", story.ID),
			Description: story.Sentence(),
			Status:      TaskPending,
		}
		for _, req := range story.Requirements {
			t.RequirementIDs = append(t.RequirementIDs, req.ID)
		}
		tasks = append(tasks, t)
	}
	return tasks
}
