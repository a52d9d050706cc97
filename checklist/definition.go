/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in onboarding checklist.
func Default() (*Definition, error) {
	def, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing default checklist: %w", err)
	}
	return def, nil
}

// LoadFile reads and validates a definition from a YAML file.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening checklist definition: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Definition, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes and validates a YAML definition. Unknown fields are rejected.
func Load(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty checklist definition")
		}
		return nil, fmt.Errorf("decoding checklist definition: %w", err)
	}
	if err := def.build(); err != nil {
		return nil, err
	}
	return &def, nil
}

// New validates steps and returns a definition over them.
func New(steps ...Step) (*Definition, error) {
	def := &Definition{Steps: steps}
	if err := def.build(); err != nil {
		return nil, err
	}
	return def, nil
}

// YAML renders the definition back to its file form.
func (d *Definition) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Steps []Step `yaml:"steps"`
	}{d.Steps}); err != nil {
		return nil, fmt.Errorf("encoding checklist definition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding checklist definition: %w", err)
	}
	return buf.Bytes(), nil
}

// build validates the definition and indexes its tasks.
func (d *Definition) build() error {
	if len(d.Steps) == 0 {
		return errors.New("checklist definition has no steps")
	}
	var errs []error
	index := make(map[string]taskRef)
	numbers := make(map[int]bool, len(d.Steps))

	for si, step := range d.Steps {
		where := fmt.Sprintf("step %d (%q)", step.Number, step.Title)
		if step.Number < 1 {
			errs = append(errs, fmt.Errorf("%s: number must be positive", where))
		}
		if numbers[step.Number] {
			errs = append(errs, fmt.Errorf("%s: duplicate step number", where))
		}
		numbers[step.Number] = true
		if strings.TrimSpace(step.Title) == "" {
			errs = append(errs, fmt.Errorf("%s: title is required", where))
		}
		if len(step.Sections) == 0 {
			errs = append(errs, fmt.Errorf("%s: no sections", where))
		}
		for ci, sec := range step.Sections {
			if len(sec.Tasks) == 0 {
				errs = append(errs, fmt.Errorf("%s section %d: no tasks", where, ci))
			}
			for ti, task := range sec.Tasks {
				id := strings.TrimSpace(task.ID)
				switch {
				case id == "":
					errs = append(errs, fmt.Errorf("%s section %d task %d: id is required", where, ci, ti))
					continue
				case id != task.ID:
					errs = append(errs, fmt.Errorf("%s: task id %q has surrounding whitespace", where, task.ID))
				}
				if _, dup := index[task.ID]; dup {
					errs = append(errs, fmt.Errorf("%s: duplicate task id %q", where, task.ID))
					continue
				}
				index[task.ID] = taskRef{step: si, section: ci, task: ti}
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid checklist definition: %w", err)
	}
	d.index = index
	return nil
}
