package commands

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/vsinha/stockpick/pkg/application/dto"
	"github.com/vsinha/stockpick/pkg/application/services/orchestration"
	"github.com/vsinha/stockpick/pkg/domain/entities"
)

type fakeRunner struct {
	mu       sync.Mutex
	requests []orchestration.RunRequest
	fail     map[string]error
}

func (r *fakeRunner) Run(_ context.Context, req orchestration.RunRequest) (*dto.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if err, ok := r.fail[path.Base(req.Input)]; ok {
		return nil, err
	}
	return &dto.RunSummary{
		RunID:  fmt.Sprintf("run-%d", len(r.requests)),
		Input:  req.Input,
		Output: req.OutputDir + "/" + path.Base(req.Input),
		Orders: 1,
		Picked: 5,
	}, nil
}

func (r *fakeRunner) inputs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, req := range r.requests {
		out = append(out, path.Base(req.Input))
	}
	return out
}

func TestPickCommand_Execute(t *testing.T) {
	runner := &fakeRunner{}
	var out bytes.Buffer

	cmd := NewPickCommand(Config{Input: "stock.xlsx", OutputDir: "results", Format: "text", Verbose: true}, runner, &out)
	require.NoError(t, cmd.Execute(context.Background()))

	require.Len(t, runner.requests, 1)
	assert.Equal(t, orchestration.RunRequest{Input: "stock.xlsx", OutputDir: "results"}, runner.requests[0])
	assert.Contains(t, out.String(), "Stock Picking CLI")
	assert.Contains(t, out.String(), "Units picked: 5")
	assert.Contains(t, out.String(), "Picking run complete")
}

func TestPickCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		fail    error
		wantErr string
	}{
		{"missing input", Config{}, nil, "must specify -input"},
		{"bad format", Config{Input: "stock.xlsx", Format: "yaml"}, nil, "unsupported output format"},
		{"run failure", Config{Input: "stock.xlsx"}, &entities.MissingTableError{Tables: []string{"New-Order"}}, "missing required tables: New-Order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{fail: map[string]error{}}
			if tt.fail != nil {
				runner.fail["stock.xlsx"] = tt.fail
			}
			err := NewPickCommand(tt.config, runner, &bytes.Buffer{}).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPickCommand_Help(t *testing.T) {
	runner := &fakeRunner{}
	var out bytes.Buffer
	require.NoError(t, NewPickCommand(Config{Help: true}, runner, &out).Execute(context.Background()))
	assert.Empty(t, runner.requests)
	assert.Contains(t, out.String(), "USAGE:")
}

func seedInbox(t *testing.T, fs afs.Service, inbox string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, fs.Upload(context.Background(), inbox+"/"+name, 0o644, strings.NewReader("ledger")))
	}
}

func exists(t *testing.T, fs afs.Service, location string) bool {
	t.Helper()
	ok, err := fs.Exists(context.Background(), location)
	require.NoError(t, err)
	return ok
}

func TestWatchCommand_Scan(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	inbox := "mem://localhost/watch-scan"
	seedInbox(t, fs, inbox, "b.xlsx", "a.xlsx", "notes.txt", "c.xlsx", "~$a.xlsx", "d.xlsx.partial")

	runner := &fakeRunner{fail: map[string]error{
		"b.xlsx": &entities.MissingTableError{Tables: []string{"Out-stock"}},
		"c.xlsx": fmt.Errorf("dataset c.xlsx: %w", entities.ErrRunLocked),
	}}
	var out bytes.Buffer
	cmd := NewWatchCommand(WatchConfig{Inbox: inbox, Schedule: "@every 1m", Extension: ".xlsx"}, fs, runner, &out, nil)

	picked, err := cmd.Scan(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.xlsx")
	assert.Equal(t, 1, picked)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx", "c.xlsx"}, runner.inputs())
	assert.Equal(t, inbox+"/out", runner.requests[0].OutputDir)

	assert.True(t, exists(t, fs, inbox+"/processed/a.xlsx"))
	assert.False(t, exists(t, fs, inbox+"/a.xlsx"))
	assert.True(t, exists(t, fs, inbox+"/failed/b.xlsx"))
	assert.True(t, exists(t, fs, inbox+"/c.xlsx"))
	assert.True(t, exists(t, fs, inbox+"/notes.txt"))
	assert.Contains(t, out.String(), "Units picked: 5")

	// only the locked ledger is retried
	runner.fail = nil
	picked, err = cmd.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, picked)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx", "c.xlsx", "c.xlsx"}, runner.inputs())
	assert.True(t, exists(t, fs, inbox+"/processed/c.xlsx"))
}

func TestWatchCommand_ScanDirectories(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	inbox := "mem://localhost/watch-dirs"
	seedInbox(t, fs, inbox, "north/Stock-In-Hand.csv", "south/Stock-In-Hand.csv", "loose.csv")

	runner := &fakeRunner{}
	cmd := NewWatchCommand(WatchConfig{Inbox: inbox, Schedule: "@every 1m", OutputDir: "mem://localhost/results"}, fs, runner, &bytes.Buffer{}, nil)

	picked, err := cmd.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, picked)
	assert.Equal(t, []string{"north", "south"}, runner.inputs())
	assert.Equal(t, "mem://localhost/results", runner.requests[0].OutputDir)
	assert.True(t, exists(t, fs, inbox+"/processed/north/Stock-In-Hand.csv"))

	// processed/ itself is never picked up again
	picked, err = cmd.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, picked)
}

func TestWatchCommand_Execute(t *testing.T) {
	fs := afs.New()
	inbox := "mem://localhost/watch-exec"
	seedInbox(t, fs, inbox, "a.xlsx")

	runner := &fakeRunner{}
	cmd := NewWatchCommand(WatchConfig{Inbox: inbox, Schedule: "@every 1s", Extension: ".xlsx"}, fs, runner, &bytes.Buffer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.Execute(ctx) }()

	require.Eventually(t, func() bool { return len(runner.inputs()) == 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	bad := NewWatchCommand(WatchConfig{Inbox: inbox, Schedule: "whenever"}, fs, runner, &bytes.Buffer{}, nil)
	err := bad.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid watch schedule"))

	empty := NewWatchCommand(WatchConfig{Schedule: "@every 1s"}, fs, runner, &bytes.Buffer{}, nil)
	assert.Error(t, empty.Execute(context.Background()))
}
