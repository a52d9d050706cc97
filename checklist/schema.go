/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"reflect"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
)

var predicateType = reflect.TypeFor[Predicate]()

// Schema returns the JSON schema of a definition file.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		// Predicate marshals as text, which the reflector would otherwise
		// reduce to a bare string.
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == predicateType || t == reflect.PointerTo(predicateType) {
				return predicateSchema()
			}
			return nil
		},
	}
	s := r.Reflect(&Definition{})
	s.Title = "Onboarding checklist definition"
	return s
}

func predicateSchema() *jsonschema.Schema {
	names := make([]string, 0, len(predicateKinds))
	for name := range predicateKinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Detection key, optionally suffixed with :N or :VALUE. Known names: " + strings.Join(names, ", "),
	}
}
