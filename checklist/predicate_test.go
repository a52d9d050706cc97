/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		key     string
		want    Predicate
		wantErr bool
	}{{
		key:  "has_agents",
		want: Predicate{Kind: KindFlag, Name: HasAgents},
	}, {
		key:  "has_prompt_v2",
		want: Predicate{Kind: KindFlag, Name: HasPromptV2},
	}, {
		key:  "has_testcases:5",
		want: Predicate{Kind: KindCount, Name: HasTestCases, Min: 5},
	}, {
		key:  "has_eval_completed",
		want: Predicate{Kind: KindCount, Name: HasEvalCompleted, Min: 1},
	}, {
		key:  "has_production_traces",
		want: Predicate{Kind: KindCount, Name: HasProductionTraces, Min: 1},
	}, {
		key:  "has_tc_mode:llm_judge",
		want: Predicate{Kind: KindEnum, Name: HasTestCaseMode, Value: "llm_judge"},
	}, {
		key:  "totally_unknown_key",
		want: Predicate{Kind: KindUnknown, Name: "totally_unknown_key"},
	}, {
		key:  "  has_datasets  ",
		want: Predicate{Kind: KindFlag, Name: HasDatasets},
	}, {
		key:     "",
		wantErr: true,
	}, {
		key:     "has_testcases:many",
		wantErr: true,
	}, {
		key:     "has_eval_completed:0",
		wantErr: true,
	}, {
		key:     "has_tc_mode",
		wantErr: true,
	}, {
		key:     "has_agents:2",
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParsePredicate(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePredicate(%q) error: got = %v, wanted error = %v", tt.key, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreUnexported(Predicate{})); diff != "" {
				t.Errorf("ParsePredicate(%q) (-want, +got):\n%s", tt.key, diff)
			}
		})
	}
}

func TestPredicateRoundTrip(t *testing.T) {
	p := MustParsePredicate("has_eval_completed:2")

	out, err := yaml.Marshal(struct {
		Detect *Predicate `yaml:"detect"`
	}{&p})
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var back struct {
		Detect *Predicate `yaml:"detect"`
	}
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal(%q): %v", out, err)
	}
	if diff := cmp.Diff(p, *back.Detect, cmp.AllowUnexported(Predicate{})); diff != "" {
		t.Errorf("yaml round trip (-want, +got):\n%s", diff)
	}

	var decoded struct {
		Detect *Predicate `json:"detect"`
	}
	if err := json.Unmarshal([]byte(`{"detect":"has_testcases:3"}`), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if got, want := decoded.Detect.Min, 3; got != want {
		t.Errorf("Min: got = %d, wanted = %d", got, want)
	}
}

func TestPredicateYAMLRejectsNonScalar(t *testing.T) {
	var v struct {
		Detect *Predicate `yaml:"detect"`
	}
	if err := yaml.Unmarshal([]byte("detect: [a, b]\n"), &v); err == nil {
		t.Error("error: got = nil, wanted = non-nil")
	}
}
