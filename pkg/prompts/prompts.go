// Package prompts holds the MCP prompt texts that guide a client
// through the specification workflow: requirements, design, planning,
// and execution. Ported in spirit from
// original_source/src/specforged/prompts.py's setup_prompts, trimmed
// of the emoji-heavy conversational framing the Python original leans
// on, kept as plain guidance text registered by name rather than code.
package prompts

// Prompt is one named, static piece of guidance text an MCP client can
// fetch via "prompts/get".
type Prompt struct {
	Name        string
	Description string
	Text        string
}

// Registry is every prompt specforge serves, keyed by name.
var Registry = map[string]Prompt{
	"spec_creation": {
		Name:        "spec_creation",
		Description: "Guidance for starting a new specification",
		Text: `Start by describing what you're building: a high-level summary,
the primary users, and the problem it solves. From there the workflow
moves through four phases: requirements (user stories plus EARS
acceptance criteria), design (architecture and components), planning
(a generated task breakdown), and execution (tracking task completion).
Each phase is approved before the next begins.`,
	},
	"ears_requirement": {
		Name:        "ears_requirement",
		Description: "Explains EARS requirement notation",
		Text: `EARS (Easy Approach to Requirements Syntax) has five shapes:

  Ubiquitous:    THE SYSTEM SHALL <behavior>
  Event-driven:  WHEN <event> THE SYSTEM SHALL <response>
  State-driven:  WHILE <state> THE SYSTEM SHALL <behavior>
  Optional:      WHERE <feature> THE SYSTEM SHALL <capability>
  Unwanted:      IF <condition> THEN THE SYSTEM SHALL <response>

A complete user story should cover normal events, ongoing states,
optional features, and error conditions, not just the happy path.`,
	},
	"design_phase": {
		Name:        "design_phase",
		Description: "Guidance for the design phase",
		Text: `With requirements settled, describe: the architecture style
(layered, microservices, client-server, event-driven, serverless), the
major components and their responsibilities, the key data models and
their relationships, and how components interact. Sequence diagrams in
Mermaid syntax are welcome for anything with a non-obvious flow. Once
settled, the design compiles into design.md and implementation planning
can begin.`,
	},
	"implementation_planning": {
		Name:        "implementation_planning",
		Description: "Guidance for generating an implementation plan",
		Text: `generate_implementation_plan turns each user story into one
task covering its EARS requirements, in story order, numbered
hierarchically (1, 1.1, 1.2, 2, ...) and rendered in GitHub-style
checkbox format, with every task traced back to the requirement(s) it
fulfills. Tasks can be checked individually (check_task), in bulk
(bulk_check_tasks), or regenerated later if requirements or design
change (update_implementation_plan).`,
	},
	"task_management": {
		Name:        "task_management",
		Description: "Guidance for managing tasks during execution",
		Text: `check_task(specId, task_number) marks a task completed and rolls
up parent status automatically once every subtask is done.
bulk_check_tasks(specId, task_numbers) or bulk_check_tasks(specId,
all=true) handles several at once. execute_task(specId, task_id) is the
dependency-gated variant: it refuses to complete a task whose
dependencies are not yet satisfied.`,
	},
	"execution_phase_guidance": {
		Name:        "execution_phase_guidance",
		Description: "What to do before implementing a task",
		Text: `Before implementing any task: read requirements.md and design.md
for context, confirm the task's dependencies are satisfied, and
implement according to the architecture already agreed in design.md.
After implementing, generate tests for the new behavior, verify the
relevant EARS criteria are satisfied, and only then mark the task
complete. The execution phase builds what was planned; it is not the
place to make new design decisions.`,
	},
	"requirements_to_design": {
		Name:        "requirements_to_design",
		Description: "Transition guidance from requirements to design",
		Text: `Before moving on, confirm requirements cover every major user
persona, include normal/error/optional/state-driven scenarios, and are
each testable and traceable. Once satisfied, transition_phase(specId,
"design") opens the design phase; requirements can still be revisited
from there if something was missed.`,
	},
	"design_to_planning": {
		Name:        "design_to_planning",
		Description: "Transition guidance from design to implementation planning",
		Text: `With architecture, components, data models, and integration
points defined, transition_phase(specId, "planning") followed by
generate_implementation_plan(specId) turns the user stories into an
ordered, traceable task list ready for execution.`,
	},
	"planning_to_execution": {
		Name:        "planning_to_execution",
		Description: "Transition guidance from planning to execution",
		Text: `The implementation plan is ready: transition_phase(specId,
"execution") opens the execution phase. From here, work tasks in
dependency order, checking each off as it completes, and watch the
specification's completion percentage climb toward done.`,
	},
	"wizard_mode": {
		Name:        "wizard_mode",
		Description: "What the interactive wizard does and does not do",
		Text: `The wizard detects project type from markers already on disk
(go.mod, package.json, pyproject.toml, Cargo.toml), creates the
specification directly, optionally seeds starter user stories from a
matching template, and gathers user stories with EARS requirements;
design and planning are left to the editor client. It is for planning only: it never implements tasks, executes
the plan, or scaffolds application code — that happens afterward, task
by task, with proper context loading.`,
	},
	"execution_complete": {
		Name:        "execution_complete",
		Description: "Guidance once every task is complete",
		Text: `Every task in the plan is done. Good next steps: a code review
pass, verifying every EARS requirement actually holds, a security and
performance pass if relevant, and writing user-facing documentation.
Specification-driven development doesn't end at 100% — requirements
can evolve and a new round can begin from there.`,
	},
	"no_specifications": {
		Name:        "no_specifications",
		Description: "Shown when no specifications exist yet",
		Text: `No specifications exist in this project yet. Call
create_spec(name, description) to start one, or run the interactive
wizard to be walked through requirements, design, and planning before
any tasks are generated.`,
	},
	"missing_requirements": {
		Name:        "missing_requirements",
		Description: "Shown when a specification has no requirements",
		Text: `This specification has no user stories yet. Call
add_user_story(specId, as_a, i_want, so_that) and attach EARS
requirements before moving to design or planning — requirements are the
foundation everything else traces back to.`,
	},
	"missing_design": {
		Name:        "missing_design",
		Description: "Shown when a specification has no design",
		Text: `Requirements are in place but there is no design yet. Call
update_design(specId, architecture, components, data_models,
sequence_diagrams) to describe how the system will be built before
generating an implementation plan.`,
	},
	"incomplete_phase": {
		Name:        "incomplete_phase",
		Description: "Shown when a phase transition is attempted out of order",
		Text: `The workflow is requirements -> design -> planning -> execution,
each building on the last. Check which phase is incomplete and fill it
in (add_requirement, update_design, or
generate_implementation_plan) before transitioning further.`,
	},
}

// Names returns every registered prompt name, for "prompts/list".
func Names() []string {
	out := make([]string, 0, len(Registry))
	for name := range Registry {
		out = append(out, name)
	}
	return out
}
