// Package wizard implements the interactive project-creation flow
// invoked by `specforge init`: detect the project type, gather a name,
// description, and starter user stories, then create a specification
// through the same internal/specstore mutations the MCP operation
// handlers use. Ported in spirit from the original Python project's
// wizard.py (the three-phase questionary/rich flow), replaced here
// with a plain bufio.Scanner prompt loop since the corpus carries no
// TUI library for this — see DESIGN.md for that justification.
package wizard

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/internal/templates"
)

// Wizard drives the prompt flow over in/out, creating specifications
// in store.
type Wizard struct {
	scanner *bufio.Scanner
	out     io.Writer
	store   *specstore.Store
}

// New constructs a Wizard reading prompts from in and writing to out.
func New(in io.Reader, out io.Writer, store *specstore.Store) *Wizard {
	return &Wizard{scanner: bufio.NewScanner(in), out: out, store: store}
}

// Run executes the three-phase flow against a project rooted at root
// and returns the created specification's slug.
func (w *Wizard) Run(root string) (string, error) {
	fmt.Fprintln(w.out, "SpecForge Project Wizard")
	fmt.Fprintln(w.out, "Creates a specification in three phases: requirements, design, tasks.")
	fmt.Fprintln(w.out)

	detectedType, detectedStack := Detect(root)
	if detectedType != "" {
		fmt.Fprintf(w.out, "detected project type: %s (%s)\n", detectedType, strings.Join(detectedStack, ", "))
	}

	name := w.ask("project name", "")
	for strings.TrimSpace(name) == "" {
		fmt.Fprintln(w.out, "project name cannot be empty")
		name = w.ask("project name", "")
	}
	description := w.ask("brief description", "")
	projectType := w.ask("project type (rest-api, web-app, cli-tool, or custom)", detectedType)
	techStack := w.ask("technology stack", strings.Join(detectedStack, ", "))

	spec, err := w.store.Create(name, description, "")
	if err != nil {
		return "", err
	}

	var stack []string
	if techStack != "" {
		stack = strings.Split(techStack, ",")
		for i := range stack {
			stack[i] = strings.TrimSpace(stack[i])
		}
	}
	if err := w.store.SetProjectMetadata(spec.Slug, projectType, stack); err != nil {
		return "", err
	}

	fmt.Fprintf(w.out, "created specification: %s\n", spec.Slug)

	if tpl, ok := templates.Registry[projectType]; ok && w.askYesNo(fmt.Sprintf("seed starter requirements from the %s template", tpl.Name), true) {
		if err := w.applyTemplate(spec.Slug, tpl); err != nil {
			return "", err
		}
	}

	fmt.Fprintln(w.out, "\nPhase 1/3: Requirements Gathering")
	fmt.Fprintln(w.out, "EARS format: WHEN/IF/WHILE/WHERE <condition>, THE SYSTEM SHALL <response>")
	for w.askYesNo("add a user story", len(spec.Stories) == 0) {
		if err := w.gatherStory(spec.Slug); err != nil {
			return "", err
		}
	}

	fmt.Fprintln(w.out, "\nPhase 2/3: System Design")
	fmt.Fprintln(w.out, "design.md and tasks.md are ready to fill in via the editor's MCP client;")
	fmt.Fprintln(w.out, "the wizard only seeds requirements.md.")

	fmt.Fprintln(w.out, "\nPhase 3/3: Task Generation")
	fmt.Fprintln(w.out, "run `specforge serve` and ask the editor client to generate an implementation plan.")

	fmt.Fprintf(w.out, "\ndone: %s\n", spec.Slug)
	return spec.Slug, nil
}

func (w *Wizard) applyTemplate(slug string, tpl templates.Template) error {
	for _, story := range tpl.Stories {
		created, err := w.store.AddUserStory(slug, story.AsA, story.IWant, story.SoThat)
		if err != nil {
			return err
		}
		for _, req := range story.Requirements {
			if _, err := w.store.AddRequirement(slug, created.ID, req.Condition, req.SystemResponse); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Wizard) gatherStory(slug string) error {
	actor := w.ask("  as a", "user")
	desire := w.ask("  I want", "")
	benefit := w.ask("  so that", "")

	story, err := w.store.AddUserStory(slug, actor, desire, benefit)
	if err != nil {
		return err
	}

	for w.askYesNo("  add an EARS requirement to this story", true) {
		condition := w.ask("    condition (e.g. WHEN user submits the form)", "")
		response := w.ask("    THE SYSTEM SHALL", "")
		if _, err := w.store.AddRequirement(slug, story.ID, condition, response); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) ask(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}
	if !w.scanner.Scan() {
		return def
	}
	line := strings.TrimSpace(w.scanner.Text())
	if line == "" {
		return def
	}
	return line
}

func (w *Wizard) askYesNo(prompt string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(w.out, "%s? [%s]: ", prompt, hint)
	if !w.scanner.Scan() {
		return def
	}
	line := strings.ToLower(strings.TrimSpace(w.scanner.Text()))
	if line == "" {
		return def
	}
	return line == "y" || line == "yes"
}
