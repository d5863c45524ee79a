package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/generate/*.tmpl templates/guard/*.tmpl
var templateFS embed.FS

// registry holds parsed templates and provides thread-safe access.
type registry struct {
	mu        sync.RWMutex
	templates map[PromptID]*template.Template
	sources   map[PromptID]string // original template source for GetTemplate
	funcMap   template.FuncMap
}

// globalRegistry is the shared registry instance. Templates are static
// embedded assets, so a package-level registry carries no mutable
// application state.
//
//nolint:gochecknoglobals // thread-safe access to static embedded templates
var globalRegistry = &registry{
	templates: make(map[PromptID]*template.Template),
	sources:   make(map[PromptID]string),
	funcMap:   defaultFuncMap(),
}

// defaultFuncMap returns the default template functions.
func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		// join concatenates strings with a separator
		"join": strings.Join,
		// hasContent checks if a string is non-empty
		"hasContent": func(s string) bool {
			return strings.TrimSpace(s) != ""
		},
		// lower converts to lowercase
		"lower": strings.ToLower,
		// upper converts to uppercase
		"upper": strings.ToUpper,
	}
}

// init loads all templates at startup.
//
//nolint:gochecknoinits // required to preload embedded templates at package initialization
func init() {
	if err := globalRegistry.loadAll(); err != nil {
		// Templates are embedded, so this should never fail.
		// If it does, it's a compile-time bug we want to know about.
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}
}

// loadAll loads all templates from the embedded filesystem.
func (r *registry) loadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}

		content, err := templateFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", path, err)
		}

		// templates/generate/component.tmpl -> generate/component
		promptID := pathToPromptID(path)

		tmpl, err := template.New(string(promptID)).Funcs(r.funcMap).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", path, err)
		}

		r.templates[promptID] = tmpl
		r.sources[promptID] = string(content)
		return nil
	})
}

// pathToPromptID converts a file path to a PromptID.
func pathToPromptID(path string) PromptID {
	id := strings.TrimPrefix(path, "templates/")
	id = strings.TrimSuffix(id, ".tmpl")
	return PromptID(id)
}

// get retrieves a template by ID.
func (r *registry) get(id PromptID) (*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

// source retrieves the raw template text by ID.
func (r *registry) source(id PromptID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return src, nil
}

// IDs returns every registered prompt identifier.
func IDs() []PromptID {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	ids := make([]PromptID, 0, len(globalRegistry.templates))
	for id := range globalRegistry.templates {
		ids = append(ids, id)
	}
	return ids
}
