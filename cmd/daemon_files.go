package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

// daemonFiles are the on-disk markers of a running daemon.
type daemonFiles struct {
	PID    string
	State  string
	Output string
}

// newDaemonFiles places the files in dataDir unless paths are given.
func newDaemonFiles(dataDir, pidFile, outFile string) daemonFiles {
	if pidFile == "" {
		pidFile = filepath.Join(dataDir, "subtrackd.pid")
	}
	if outFile == "" {
		outFile = filepath.Join(dataDir, "subtrackd.out")
	}
	return daemonFiles{PID: pidFile, State: pidFile + ".json", Output: outFile}
}

// ensureNotRunning fails if a live daemon holds the pid file; stale files
// are removed.
func (f daemonFiles) ensureNotRunning() error {
	pid, err := f.readPID()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	return nil
}

// claim writes the pid and state files for the current process.
func (f daemonFiles) claim(st daemonRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(f.PID), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.PID, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	// Best effort; status falls back to --addr.
	_ = os.WriteFile(f.State, append(data, '\n'), 0o600)
	return nil
}

func (f daemonFiles) release() {
	_ = os.Remove(f.PID)
	_ = os.Remove(f.State)
}

func (f daemonFiles) readPID() (int, error) {
	data, err := os.ReadFile(f.PID)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.PID)
	}
	return pid, nil
}

func (f daemonFiles) readState() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(f.State)
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// openOutput opens the file a detached child writes stdout and stderr to.
func (f daemonFiles) openOutput() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(f.Output), 0o750); err != nil {
		return nil, fmt.Errorf("create daemon output directory: %w", err)
	}
	out, err := os.OpenFile(f.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open daemon output file: %w", err)
	}
	return out, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
