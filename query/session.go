package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/w-h-a/graphiti/interpreter"
)

const historyLimit = 500

// Session holds a conversation with the interpreter and the bounded on-disk
// history of past queries.
type Session struct {
	interpreter interpreter.Interpreter
	executor    *Executor
	exchanges   []interpreter.Exchange
	historyFile string
	mtx         sync.Mutex
}

type SessionOption func(*Session)

func WithExecutor(executor *Executor) SessionOption {
	return func(s *Session) {
		s.executor = executor
	}
}

func WithHistoryFile(path string) SessionOption {
	return func(s *Session) {
		s.historyFile = path
	}
}

func NewSession(i interpreter.Interpreter, opts ...SessionOption) *Session {
	s := &Session{
		interpreter: i,
		executor:    NewExecutor(),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		s.historyFile = filepath.Join(home, ".graphiti", "query_history.json")
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type historyEntry struct {
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`
	Command   string `json:"command"`
	Success   bool   `json:"success"`
}

// Process translates one natural-language query and executes the result.
// It returns the interpreted command, whether execution succeeded, and the
// command's output or failure message.
func (s *Session) Process(ctx context.Context, query string, dryRun bool) (string, bool, string, error) {
	command, err := s.interpreter.Interpret(ctx, query, s.exchanges)
	if errors.Is(err, interpreter.ErrNoResponse) {
		command = interpreter.Fallback(query)
	} else if err != nil {
		return "", false, "", err
	}

	s.exchanges = append(s.exchanges, interpreter.Exchange{
		Query:   query,
		Command: command,
	})

	success, output := s.executor.Execute(ctx, command, dryRun)

	// History is best effort; a failed write never fails the query.
	_ = s.appendHistory(query, command, success)

	return command, success, output, nil
}

// History renders the most recent ten history entries.
func (s *Session) History() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	entries, err := s.readHistory()
	if err != nil || len(entries) == 0 {
		return "No query history found."
	}

	start := 0
	if len(entries) > 10 {
		start = len(entries) - 10
	}

	var lines []string
	for _, entry := range entries[start:] {
		when := entry.Timestamp
		if parsed, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
			when = parsed.Format("2006-01-02 15:04")
		}
		lines = append(lines, fmt.Sprintf("%s - %s", when, entry.Query))
		lines = append(lines, fmt.Sprintf("  -> %s", entry.Command))
		if !entry.Success {
			lines = append(lines, "  x Failed")
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// ClearHistory removes the history file.
func (s *Session) ClearHistory() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.historyFile) == 0 {
		return nil
	}

	err := os.Remove(s.historyFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Session) appendHistory(query string, command string, success bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.historyFile) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.historyFile), 0o755); err != nil {
		return err
	}

	// Unreadable or corrupt history starts over rather than failing.
	entries, _ := s.readHistory()

	entries = append(entries, historyEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Query:     query,
		Command:   command,
		Success:   success,
	})

	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}

	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.historyFile, encoded, 0o644)
}

func (s *Session) readHistory() ([]historyEntry, error) {
	data, err := os.ReadFile(s.historyFile)
	if err != nil {
		return nil, err
	}

	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
