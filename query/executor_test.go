package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRejectsDisallowedCommands(t *testing.T) {
	executor := NewExecutor()

	tests := []struct {
		name    string
		command string
	}{
		{name: "arbitrary shell", command: "rm -rf /"},
		{name: "disallowed subcommand", command: "graphiti maintenance clear"},
		{name: "episodes add", command: "graphiti episodes add test"},
		{name: "prefix without boundary", command: "graphiti searcher foo"},
		{name: "empty", command: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			success, output := executor.Execute(context.Background(), tt.command, false)
			assert.False(t, success)
			assert.Equal(t, "Command not allowed: "+tt.command, output)
		})
	}
}

func TestExecuteDryRun(t *testing.T) {
	executor := NewExecutor()

	success, output := executor.Execute(context.Background(), `graphiti search "auth components"`, true)

	assert.True(t, success)
	assert.Equal(t, `[DRY RUN] Would execute: graphiti search "auth components"`, output)
}

func TestExecuteAllowsExactAndExtendedCommands(t *testing.T) {
	executor := NewExecutor()

	for _, command := range []string{
		"graphiti maintenance stats",
		"graphiti search temporal --since yesterday",
		"graphiti episodes get --last-n 5",
	} {
		success, _ := executor.Execute(context.Background(), command, true)
		assert.True(t, success, command)
	}
}

func TestExecuteRunsBinary(t *testing.T) {
	executor := NewExecutor(WithBinary("/bin/echo"))

	success, output := executor.Execute(context.Background(), `graphiti search "hello world"`, false)

	assert.True(t, success)
	assert.Equal(t, "search hello world\n", output)
}

func TestExecuteReportsExitFailure(t *testing.T) {
	executor := NewExecutor(WithBinary("/bin/false"))

	success, output := executor.Execute(context.Background(), "graphiti search x", false)

	assert.False(t, success)
	assert.Equal(t, "Command failed with exit code 1", output)
}

func TestExecuteTimesOut(t *testing.T) {
	script := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 2\n"), 0o755))

	executor := NewExecutor(WithBinary(script), WithTimeout(100*time.Millisecond))

	success, output := executor.Execute(context.Background(), "graphiti search x", false)

	assert.False(t, success)
	assert.Contains(t, output, "Command timed out")
}

func TestExecuteUnbalancedQuote(t *testing.T) {
	executor := NewExecutor()

	success, output := executor.Execute(context.Background(), `graphiti search "unterminated`, false)

	assert.False(t, success)
	assert.Contains(t, output, "unbalanced quote")
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "plain words",
			command: "graphiti maintenance stats",
			want:    []string{"graphiti", "maintenance", "stats"},
		},
		{
			name:    "double quotes",
			command: `graphiti search "auth component" --group-ids project_x`,
			want:    []string{"graphiti", "search", "auth component", "--group-ids", "project_x"},
		},
		{
			name:    "single quotes",
			command: `graphiti search 'what depends on X'`,
			want:    []string{"graphiti", "search", "what depends on X"},
		},
		{
			name:    "empty quoted token",
			command: `graphiti search ""`,
			want:    []string{"graphiti", "search", ""},
		},
		{
			name:    "collapsed whitespace",
			command: "graphiti  search\t temporal",
			want:    []string{"graphiti", "search", "temporal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
