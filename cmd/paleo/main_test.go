// Package main provides tests for the paleo CLI.
package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paleoml/paleo/internal/cli"
)

// runCLI executes the root command with args and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "paleo") {
		t.Errorf("version output should contain 'paleo', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"executions", "artifacts", "history", "get", "lineage", "seed", "version"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestSeedAndQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "paleo.db")

	out, err := runCLI(t, "seed", "--run-id", "demo", "--steps", "2", "--database", dbPath, "--output", "json")
	if err != nil {
		t.Fatalf("seed error = %v\n%s", err, out)
	}
	var seeded struct {
		RunID      string `json:"run_id"`
		Executions int    `json:"executions"`
		Artifacts  int    `json:"artifacts"`
	}
	if err := json.Unmarshal([]byte(out), &seeded); err != nil {
		t.Fatalf("seed output is not JSON: %v\n%s", err, out)
	}
	if seeded.RunID != "demo" || seeded.Executions != 3 || seeded.Artifacts != 3 {
		t.Fatalf("unexpected seed result: %+v", seeded)
	}

	out, err = runCLI(t, "executions", "demo", "--database", dbPath, "--output", "json")
	if err != nil {
		t.Fatalf("executions error = %v\n%s", err, out)
	}
	var executions []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &executions); err != nil {
		t.Fatalf("executions output is not JSON: %v\n%s", err, out)
	}
	if len(executions) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(executions))
	}
	if executions[0].Name != "run/demo" {
		t.Errorf("first execution = %q, want the root", executions[0].Name)
	}

	out, err = runCLI(t, "artifacts", "--run", "demo", "--database", dbPath, "--output", "json")
	if err != nil {
		t.Fatalf("artifacts error = %v\n%s", err, out)
	}
	var artifacts []struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal([]byte(out), &artifacts); err != nil {
		t.Fatalf("artifacts output is not JSON: %v\n%s", err, out)
	}
	// One entry per event: 2 steps, each with one input and one output.
	if len(artifacts) != 4 {
		t.Fatalf("expected 4 artifact entries, got %d", len(artifacts))
	}

	out, err = runCLI(t, "lineage", "1", "--database", dbPath, "--output", "json")
	if err != nil {
		t.Fatalf("lineage error = %v\n%s", err, out)
	}
	var lineage struct {
		Stats struct {
			Artifacts  int `json:"artifacts"`
			Executions int `json:"executions"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &lineage); err != nil {
		t.Fatalf("lineage output is not JSON: %v\n%s", err, out)
	}
	if lineage.Stats.Artifacts != 3 || lineage.Stats.Executions != 2 {
		t.Errorf("unexpected lineage stats: %+v", lineage.Stats)
	}

	out, err = runCLI(t, "lineage", "1", "--database", dbPath, "--output", "text")
	if err != nil {
		t.Fatalf("lineage text error = %v\n%s", err, out)
	}
	for _, want := range []string{"Lineage of artifact 1", "artifact:1", "execution:2", "Edges"} {
		if !strings.Contains(out, want) {
			t.Errorf("text lineage should contain %q, got:\n%s", want, out)
		}
	}
}

func TestExecutions_RunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "paleo.db")

	out, err := runCLI(t, "executions", "missing", "--database", dbPath)
	if err == nil {
		t.Fatalf("expected error for unknown run, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should say not found: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"excavate"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}
