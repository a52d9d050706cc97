/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the Predicate variants.
type Kind int

const (
	// KindUnknown predicates name a condition the resolver does not know.
	// They always resolve false.
	KindUnknown Kind = iota
	// KindFlag predicates are boolean facts about a snapshot.
	KindFlag
	// KindCount predicates require a collection to hold at least Min items.
	KindCount
	// KindEnum predicates require some item to carry Value.
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindCount:
		return "count"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Predicate names.
const (
	HasAgents           = "has_agents"
	HasDatasets         = "has_datasets"
	HasAnnotations      = "has_annotations"
	HasPromptV2         = "has_prompt_v2"
	HasTestCases        = "has_testcases"
	HasTestCaseMode     = "has_tc_mode"
	HasEvalCompleted    = "has_eval_completed"
	HasProductionTraces = "has_production_traces"
)

var predicateKinds = map[string]Kind{
	HasAgents:           KindFlag,
	HasDatasets:         KindFlag,
	HasAnnotations:      KindFlag,
	HasPromptV2:         KindFlag,
	HasTestCases:        KindCount,
	HasEvalCompleted:    KindCount,
	HasProductionTraces: KindCount,
	HasTestCaseMode:     KindEnum,
}

// Predicate is a parsed detection key.
type Predicate struct {
	Kind  Kind
	Name  string
	Min   int    // KindCount only
	Value string // KindEnum only

	key string
}

// ParsePredicate parses a detection key such as "has_testcases:5".
//
// Count keys without a suffix default to a minimum of one. Names that are not
// recognized parse successfully as KindUnknown. Malformed counts and enum keys
// without a value are errors.
func ParsePredicate(key string) (Predicate, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Predicate{}, fmt.Errorf("empty predicate key")
	}
	name, arg, hasArg := strings.Cut(key, ":")
	p := Predicate{Kind: predicateKinds[name], Name: name, key: key}

	switch p.Kind {
	case KindFlag:
		if hasArg {
			return Predicate{}, fmt.Errorf("predicate %q: flag %s takes no argument", key, name)
		}
	case KindCount:
		p.Min = 1
		if hasArg {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return Predicate{}, fmt.Errorf("predicate %q: parsing count: %w", key, err)
			}
			if n < 1 {
				return Predicate{}, fmt.Errorf("predicate %q: count must be positive, got %d", key, n)
			}
			p.Min = n
		}
	case KindEnum:
		if !hasArg || strings.TrimSpace(arg) == "" {
			return Predicate{}, fmt.Errorf("predicate %q: %s requires a value", key, name)
		}
		p.Value = strings.TrimSpace(arg)
	default:
		p.Value = arg
	}
	return p, nil
}

// MustParsePredicate is ParsePredicate for keys known to be valid.
func MustParsePredicate(key string) Predicate {
	p, err := ParsePredicate(key)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the key the predicate was parsed from.
func (p Predicate) String() string {
	return p.key
}

// MarshalText implements encoding.TextMarshaler.
func (p Predicate) MarshalText() ([]byte, error) {
	return []byte(p.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Predicate) UnmarshalText(b []byte) error {
	parsed, err := ParsePredicate(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Predicate) MarshalYAML() (any, error) {
	return p.key, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Predicate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: detect must be a string", node.Line)
	}
	parsed, err := ParsePredicate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = parsed
	return nil
}
