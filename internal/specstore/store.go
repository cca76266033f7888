package specstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/specforged/specforge/internal/atomicio"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specerrors"
)

const specDirName = ".specifications"

// Store is the in-memory, mutex-guarded specification catalog. It is
// the only component (besides internal/processor's handler dispatch)
// that touches the Specification domain model; every mutation persists
// the full spec directory before returning.
type Store struct {
	mu      sync.RWMutex
	sandbox *sandbox.Sandbox
	specs   map[string]*Specification
	logger  logging.Logger
}

// New creates a Store rooted at sb.Root()/.specifications.
func New(sb *sandbox.Sandbox, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Store{
		sandbox: sb,
		specs:   make(map[string]*Specification),
		logger:  logger.WithComponent("specstore"),
	}
}

func (s *Store) specsRoot() string {
	return filepath.Join(s.sandbox.Root(), specDirName)
}

func (s *Store) specDir(slug string) string {
	return filepath.Join(s.specsRoot(), slug)
}

// Create derives a slug from name, creates the specification directory
// with its four files, and registers it in the store.
func (s *Store) Create(name, description, requestedSlug string) (*Specification, error) {
	slug := requestedSlug
	if slug == "" {
		slug = Slugify(name)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return nil, specerrors.New("specstore.Create", specerrors.ErrValidation, "name yields an empty slug")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.specs[slug]; exists {
		return nil, specerrors.New("specstore.Create", specerrors.ErrConflict, "specification already exists: "+slug)
	}

	now := time.Now().UTC()
	spec := &Specification{
		Slug:      slug,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusDraft,
		Phase:     PhaseRequirements,
		Metadata:  map[string]interface{}{},
		Stories:   []*UserStory{},
		Tasks:     []*Task{},
	}
	if description != "" {
		spec.Metadata["description"] = description
	}

	dir := s.specDir(slug)
	if _, err := s.sandbox.Validate(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, specerrors.Wrap("specstore.Create", specerrors.ErrTransient, err)
	}

	if err := s.persist(spec); err != nil {
		return nil, err
	}
	s.specs[slug] = spec
	return spec, nil
}

// LoadAll scans the specifications root; every directory containing a
// valid spec.json is hydrated and its markdown companions are created
// if missing (existing ones are never overwritten on load).
func (s *Store) LoadAll() error {
	root := s.specsRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return specerrors.Wrap("specstore.LoadAll", specerrors.ErrTransient, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		slug := entry.Name()
		jsonPath := filepath.Join(root, slug, "spec.json")
		if !atomicio.Exists(jsonPath) {
			continue
		}
		var spec Specification
		if err := atomicio.Read(jsonPath, &spec); err != nil {
			s.logger.Warn("skipping unreadable specification", map[string]interface{}{"slug": slug, "error": err.Error()})
			continue
		}
		s.specs[slug] = &spec
		s.ensureMarkdown(&spec)
	}
	return nil
}

// ensureMarkdown creates any of the three markdown companions that are
// missing, without overwriting ones that already exist.
func (s *Store) ensureMarkdown(spec *Specification) {
	dir := s.specDir(spec.Slug)
	files := map[string]func(*Specification) string{
		"requirements.md": renderRequirements,
		"design.md":       renderDesign,
		"tasks.md":        renderTasks,
	}
	for name, render := range files {
		path := filepath.Join(dir, name)
		if atomicio.Exists(path) {
			continue
		}
		if err := atomicio.WriteText(path, render(spec)); err != nil {
			s.logger.Warn("failed to create markdown companion", map[string]interface{}{"slug": spec.Slug, "file": name, "error": err.Error()})
		}
	}
}

// Get returns the specification for slug, or NotFound.
func (s *Store) Get(slug string) (*Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.specs[slug]
	if !ok {
		return nil, specerrors.New("specstore.Get", specerrors.ErrNotFound, "no such specification: "+slug).WithID(slug)
	}
	return spec, nil
}

// List returns every known specification, in no particular order.
func (s *Store) List() []*Specification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Specification, 0, len(s.specs))
	for _, spec := range s.specs {
		out = append(out, spec)
	}
	return out
}

// persist writes spec.json and regenerates all three markdown
// companions in full. Callers must hold s.mu.
func (s *Store) persist(spec *Specification) error {
	dir := s.specDir(spec.Slug)
	if err := atomicio.Write(filepath.Join(dir, "spec.json"), spec); err != nil {
		return err
	}
	if err := atomicio.WriteText(filepath.Join(dir, "requirements.md"), renderRequirements(spec)); err != nil {
		return err
	}
	if err := atomicio.WriteText(filepath.Join(dir, "design.md"), renderDesign(spec)); err != nil {
		return err
	}
	if err := atomicio.WriteText(filepath.Join(dir, "tasks.md"), renderTasks(spec)); err != nil {
		return err
	}
	return nil
}

// mutate applies fn to a deep copy of the stored specification and
// only installs that copy once it has been persisted successfully: a
// failed persist (a full disk, a rename failure) leaves the original,
// still-registered specification untouched rather than committing a
// mutation that was never written to disk.
func (s *Store) mutate(slug string, fn func(*Specification) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec, ok := s.specs[slug]
	if !ok {
		return specerrors.New("specstore.mutate", specerrors.ErrNotFound, "no such specification: "+slug).WithID(slug)
	}
	clone := cloneSpecification(spec)
	if err := fn(clone); err != nil {
		return err
	}
	clone.UpdatedAt = time.Now().UTC()
	if err := s.persist(clone); err != nil {
		return err
	}
	s.specs[slug] = clone
	return nil
}
