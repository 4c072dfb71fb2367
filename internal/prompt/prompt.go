// Package prompt renders analyzer prompt templates and enforces that every
// placeholder referenced by a template is bound before the prompt goes to
// the LLM, the same "render then error on unbound placeholders" contract the
// teacher's internal/playground/worker/worker.go renderTemplate follows.
package prompt

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*\.?([A-Za-z0-9_]+)\s*\}\}`)

// RequiredVariables returns the distinct placeholder names referenced by a
// raw template body, used to validate an AnalyzerSpec at registration time.
func RequiredVariables(raw string) []string {
	matches := placeholderRe.FindAllStringSubmatch(raw, -1)
	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Render executes a text/template against the given variables, failing
// (rather than silently emitting "<no value>") when the template body
// option isn't set, and when any referenced key is missing entirely.
func Render(name, raw string, vars map[string]any) (string, error) {
	for _, key := range RequiredVariables(raw) {
		if _, ok := vars[key]; !ok {
			return "", fmt.Errorf("prompt %q: missing required variable %q", name, key)
		}
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("prompt %q: parse: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("prompt %q: execute: %w", name, err)
	}
	return buf.String(), nil
}
