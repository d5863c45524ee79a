package prompts

import (
	"bytes"
	"errors"
	"fmt"
)

// Render executes a prompt template with the provided data and returns
// the result. The data type should match the expected type for the
// given prompt ID.
//
// Example:
//
//	data := prompts.ComponentData{
//	    Name:      "PricingCard",
//	    Framework: "react",
//	    Styling:   "tailwind",
//	}
//	prompt, err := prompts.Render(prompts.GenerateComponent, data)
func Render(id PromptID, data any) (string, error) {
	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplateExecution, fmt.Errorf("prompt %s: %w", id, err))
	}

	return buf.String(), nil
}

// MustRender executes a prompt template and panics on error. Use this
// only when template execution cannot fail (known-good static data).
func MustRender(id PromptID, data any) string {
	result, err := Render(id, data)
	if err != nil {
		panic(fmt.Sprintf("prompts.MustRender(%s): %v", id, err))
	}
	return result
}

// GetTemplate returns the raw template source for a prompt ID. The CLI
// uses this to show users what a prompt looks like before rendering.
func GetTemplate(id PromptID) (string, error) {
	return globalRegistry.source(id)
}
