package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// definitionFile is the on-disk shape of a user workflow definition.
// Durations are written as Go duration strings ("90s", "5m").
type definitionFile struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Category    string     `yaml:"category" json:"category"`
	Steps       []stepFile `yaml:"steps" json:"steps"`
}

type stepFile struct {
	ID                string         `yaml:"id" json:"id"`
	Name              string         `yaml:"name" json:"name"`
	Description       string         `yaml:"description" json:"description"`
	Command           string         `yaml:"command" json:"command"`
	Dependencies      []string       `yaml:"dependencies" json:"dependencies"`
	EstimatedDuration string         `yaml:"estimatedDuration" json:"estimatedDuration"`
	AutoContinue      bool           `yaml:"autoContinue" json:"autoContinue"`
	RequiredContext   map[string]any `yaml:"requiredContext" json:"requiredContext"`
	ContextOutputs    map[string]any `yaml:"contextOutputs" json:"contextOutputs"`
	Optional          bool           `yaml:"optional" json:"optional"`
}

// LoadDefinition reads a workflow definition from a YAML or JSON file
// (detected by extension) and validates it. The returned definition is
// ready to register.
func LoadDefinition(path string) (*domain.WorkflowDefinition, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-supplied definition path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", loomerrors.ErrWorkflowFileMissing, path)
		}
		return nil, fmt.Errorf("%w: %s", loomerrors.ErrWorkflowLoadFailed, err.Error())
	}

	var file definitionFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", loomerrors.ErrWorkflowParseError, path, err.Error())
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", loomerrors.ErrWorkflowParseError, path, err.Error())
		}
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", loomerrors.ErrWorkflowParseError, filepath.Ext(path))
	}

	def, err := file.toDefinition()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := ValidateDefinition(def); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// toDefinition converts the file shape into the domain type, parsing
// duration strings and defaulting the category.
func (f *definitionFile) toDefinition() (*domain.WorkflowDefinition, error) {
	if f.ID == "" {
		return nil, loomerrors.ErrWorkflowIDEmpty
	}

	category := constants.WorkflowCategory(f.Category)
	if f.Category == "" {
		category = constants.CategoryDevelopment
	}

	def := &domain.WorkflowDefinition{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Category:    category,
		Steps:       make([]domain.WorkflowStep, 0, len(f.Steps)),
	}

	for _, sf := range f.Steps {
		step := domain.WorkflowStep{
			ID:              sf.ID,
			Name:            sf.Name,
			Description:     sf.Description,
			Command:         sf.Command,
			Dependencies:    sf.Dependencies,
			AutoContinue:    sf.AutoContinue,
			RequiredContext: sf.RequiredContext,
			ContextOutputs:  sf.ContextOutputs,
			Optional:        sf.Optional,
		}
		if sf.EstimatedDuration != "" {
			d, err := time.ParseDuration(sf.EstimatedDuration)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w: %s", sf.ID, loomerrors.ErrInvalidDuration, sf.EstimatedDuration)
			}
			step.EstimatedDuration = d
		}
		def.Steps = append(def.Steps, step)
	}

	def.EstimatedDuration = def.TotalEstimate()
	return def, nil
}

// RegisterFromConfig loads and registers every definition named in the
// workflow configuration's definitions map. Each entry may overwrite a
// built-in with the same ID.
func RegisterFromConfig(registry *Registry, definitions map[string]string) error {
	for name, path := range definitions {
		def, err := LoadDefinition(path)
		if err != nil {
			return loomerrors.Wrapf(err, "failed to load workflow %q", name)
		}
		if err := registry.Register(def); err != nil {
			return loomerrors.Wrapf(err, "failed to register workflow %q", name)
		}
	}
	return nil
}
