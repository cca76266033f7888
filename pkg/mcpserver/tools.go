package mcpserver

import "github.com/specforged/specforge/internal/queue"

// ToolSpec describes one MCP tool: its operation type and which
// arguments are required before an Operation is even enqueued (full
// validation still happens in internal/handlers once the processor
// picks it up — this is just the fast client-facing rejection).
type ToolSpec struct {
	Name           string
	Description    string
	OperationType  queue.Type
	RequiredParams []string
}

// Tools is every MCP tool exposed, one per entry in the operation type
// table plus specforge_sync_status/specforge_heartbeat.
var Tools = []ToolSpec{
	{
		Name:           "specforge_create_spec",
		Description:    "Create a new specification and its rendered markdown companions.",
		OperationType:  queue.TypeCreateSpec,
		RequiredParams: []string{"name"},
	},
	{
		Name:           "specforge_set_current_spec",
		Description:    "Mark a specification as the current one for this session.",
		OperationType:  queue.TypeSetCurrentSpec,
		RequiredParams: []string{"specId"},
	},
	{
		Name:           "specforge_update_requirements",
		Description:    "Accept requirements content for an existing specification; the content is not stored, since requirements.md is rendered from the specification's user stories.",
		OperationType:  queue.TypeUpdateRequirements,
		RequiredParams: []string{"specId", "content"},
	},
	{
		Name:           "specforge_update_design",
		Description:    "Merge architecture/components/data model fields into a specification's design.",
		OperationType:  queue.TypeUpdateDesign,
		RequiredParams: []string{"specId"},
	},
	{
		Name:           "specforge_update_tasks",
		Description:    "Regenerate a specification's task breakdown.",
		OperationType:  queue.TypeUpdateTasks,
		RequiredParams: []string{"specId", "content"},
	},
	{
		Name:           "specforge_add_user_story",
		Description:    "Append a user story, optionally with its EARS requirements, to a specification.",
		OperationType:  queue.TypeAddUserStory,
		RequiredParams: []string{"specId", "as_a", "i_want", "so_that"},
	},
	{
		Name:           "specforge_add_requirement",
		Description:    "Append an EARS requirement to an existing user story.",
		OperationType:  queue.TypeAddRequirement,
		RequiredParams: []string{"specId", "storyId", "condition", "system_response"},
	},
	{
		Name:           "specforge_add_task",
		Description:    "Append a task to a specification's implementation plan.",
		OperationType:  queue.TypeAddTask,
		RequiredParams: []string{"specId", "title"},
	},
	{
		Name:           "specforge_check_task",
		Description:    "Mark a task completed, rolling up parent status.",
		OperationType:  queue.TypeCheckTask,
		RequiredParams: []string{"specId", "task_number"},
	},
	{
		Name:           "specforge_uncheck_task",
		Description:    "Mark a task pending, rolling up parent status.",
		OperationType:  queue.TypeUncheckTask,
		RequiredParams: []string{"specId", "task_number"},
	},
	{
		Name:           "specforge_bulk_check_tasks",
		Description:    "Check multiple tasks, or all tasks, at once.",
		OperationType:  queue.TypeBulkCheckTasks,
		RequiredParams: []string{"specId"},
	},
	{
		Name:           "specforge_execute_task",
		Description:    "Transition a task to completed, gated on its dependencies.",
		OperationType:  queue.TypeExecuteTask,
		RequiredParams: []string{"specId", "task_id"},
	},
	{
		Name:           "specforge_transition_phase",
		Description:    "Move a specification to a new lifecycle phase.",
		OperationType:  queue.TypeTransitionPhase,
		RequiredParams: []string{"specId", "target_phase"},
	},
	{
		Name:           "specforge_generate_implementation_plan",
		Description:    "Deterministically regenerate the implementation plan from the specification's user stories and their requirements.",
		OperationType:  queue.TypeGenerateImplementation,
		RequiredParams: []string{"specId"},
	},
	{
		Name:           "specforge_update_implementation_plan",
		Description:    "Re-run plan generation after requirements or design changed.",
		OperationType:  queue.TypeUpdateImplementationPlan,
		RequiredParams: []string{"specId"},
	},
	{
		Name:           "specforge_heartbeat",
		Description:    "No-op liveness check; returns the server's current time.",
		OperationType:  queue.TypeHeartbeat,
		RequiredParams: nil,
	},
	{
		Name:           "specforge_sync_status",
		Description:    "Return the current SyncState snapshot without enqueueing a mutation.",
		OperationType:  queue.TypeSyncStatus,
		RequiredParams: nil,
	},
}

func findTool(name string) (ToolSpec, bool) {
	for _, t := range Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSpec{}, false
}
