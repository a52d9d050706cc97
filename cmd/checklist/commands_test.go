/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

// newAPI serves an evaluation API where one agent exists and nothing else.
func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/agents", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id":"a1","name":"bot","prompt_version":1}]`)
	})
	mux.HandleFunc("GET /api/datasets", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("GET /api/evaluations", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("GET /api/traces", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total":0}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(t *testing.T, apiURL string) envconfig.Lookuper {
	t.Helper()
	return envconfig.MapLookuper(map[string]string{
		"EVAL_API_URL":        apiURL,
		"CHECKLIST_STATE_DIR": t.TempDir(),
		"LOG_LEVEL":           "error",
	})
}

// runCLI executes the CLI and returns stdout and stderr.
func runCLI(t *testing.T, lookuper envconfig.Lookuper, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(lookuper, &stderr)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestStatusDetects(t *testing.T) {
	env := testEnv(t, newAPI(t).URL)

	out, _, err := runCLI(t, env, "status")
	require.NoError(t, err)

	for _, want := range []string{
		"# Onboarding checklist:",
		"## Step 1: Register your agent (2/4)",
		"`has_agents` (auto)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Detection is partial") {
		t.Errorf("status reported partial detection:\n%s", out)
	}

	// The detected marks were persisted.
	out, _, err = runCLI(t, env, "status", "--offline")
	require.NoError(t, err)
	if want := "## Step 1: Register your agent (2/4)"; !strings.Contains(out, want) {
		t.Errorf("offline status missing %q in:\n%s", want, out)
	}
}

func TestStatusAPIDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	env := testEnv(t, srv.URL)

	out, stderr, err := runCLI(t, env, "status")
	require.NoError(t, err)
	if !strings.Contains(stderr, "detection unavailable") {
		t.Errorf("stderr = %q, wanted a detection warning", stderr)
	}
	if want := "## Step 1: Register your agent (0/4)"; !strings.Contains(out, want) {
		t.Errorf("status missing %q in:\n%s", want, out)
	}
}

func TestStatusPartial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/agents", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id":"a1","name":"bot","prompt_version":2}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	env := testEnv(t, srv.URL)

	out, stderr, err := runCLI(t, env, "status")
	require.NoError(t, err)
	if !strings.Contains(stderr, "detection is partial") {
		t.Errorf("stderr = %q, wanted a partial detection warning", stderr)
	}
	for _, want := range []string{"Detection is partial", "## Step 1: Register your agent (4/4) ✅"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q in:\n%s", want, out)
		}
	}
}

func TestToggle(t *testing.T) {
	env := testEnv(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, env, "toggle", "open-agents")
	require.NoError(t, err)
	if got, want := out, "open-agents: checked\n"; got != want {
		t.Errorf("toggle: got = %q, wanted = %q", got, want)
	}

	out, _, err = runCLI(t, env, "toggle", "open-agents")
	require.NoError(t, err)
	if got, want := out, "open-agents: unchecked\n"; got != want {
		t.Errorf("toggle again: got = %q, wanted = %q", got, want)
	}

	if _, _, err := runCLI(t, env, "toggle", "no-such-task"); err == nil {
		t.Error("toggle of an unknown task succeeded")
	}
}

func TestToggleSection(t *testing.T) {
	env := testEnv(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, env, "toggle-section", "1", "1")
	require.NoError(t, err)
	if got, want := out, "write-system-prompt: checked\npublish-prompt-v2: checked\n"; got != want {
		t.Errorf("toggle-section: got = %q, wanted = %q", got, want)
	}

	out, _, err = runCLI(t, env, "toggle-section", "1", "1")
	require.NoError(t, err)
	if got, want := out, "write-system-prompt: unchecked\npublish-prompt-v2: unchecked\n"; got != want {
		t.Errorf("toggle-section again: got = %q, wanted = %q", got, want)
	}

	for _, args := range [][]string{
		{"toggle-section", "9", "0"},
		{"toggle-section", "1", "5"},
		{"toggle-section", "one", "0"},
	} {
		if _, _, err := runCLI(t, env, args...); err == nil {
			t.Errorf("%v succeeded, wanted error", args)
		}
	}
}

func TestReset(t *testing.T) {
	env := testEnv(t, "http://127.0.0.1:1")

	for _, id := range []string{"open-agents", "create-dataset"} {
		_, _, err := runCLI(t, env, "toggle", id)
		require.NoError(t, err)
	}

	out, _, err := runCLI(t, env, "reset", "--step", "1")
	require.NoError(t, err)
	if got, want := out, "Reset step 1\n"; got != want {
		t.Errorf("reset --step: got = %q, wanted = %q", got, want)
	}
	out, _, err = runCLI(t, env, "status", "--offline")
	require.NoError(t, err)
	for _, want := range []string{"Register your agent (0/4)", "Build a dataset (1/5)"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q in:\n%s", want, out)
		}
	}

	_, _, err = runCLI(t, env, "reset")
	require.NoError(t, err)
	out, _, err = runCLI(t, env, "status", "--offline")
	require.NoError(t, err)
	if want := "Build a dataset (0/5)"; !strings.Contains(out, want) {
		t.Errorf("status missing %q in:\n%s", want, out)
	}

	if _, _, err := runCLI(t, env, "reset", "--step", "42"); err == nil {
		t.Error("reset of an unknown step succeeded")
	}
}

func TestDefinition(t *testing.T) {
	env := testEnv(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, env, "definition")
	require.NoError(t, err)
	for _, want := range []string{"id: open-agents", "detect: has_agents", "detect: has_testcases:5"} {
		if !strings.Contains(out, want) {
			t.Errorf("definition missing %q in:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, env, "definition", "--schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
}

func TestInvalidConfig(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		"CHECKLIST_STATE_DIR":     t.TempDir(),
		"CHECKLIST_STATE_BACKEND": "postgres",
		"POLL_INTERVAL":           "0s",
	})
	_, _, err := runCLI(t, env, "status", "--offline")
	require.Error(t, err)
	for _, want := range []string{"CHECKLIST_STATE_BACKEND", "POLL_INTERVAL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestFlagOverrides(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		"CHECKLIST_STATE_DIR":     t.TempDir(),
		"CHECKLIST_STATE_BACKEND": "postgres",
	})
	_, _, err := runCLI(t, env, "--state-backend", "memory", "toggle", "open-agents")
	require.NoError(t, err)
}
