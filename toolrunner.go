package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecToolRunner runs external steps (repository sync, engine builds) through
// the shell, appending combined output to one log file per step. External
// orchestration stays behind this narrow seam, never inlined into the
// measurement logic.
type ExecToolRunner struct {
	LogDir string
}

func (r *ExecToolRunner) logPath(step string) string {
	return filepath.Join(r.LogDir, fmt.Sprintf("%v.log", step))
}

func (r *ExecToolRunner) Run(step string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("step %v has no command", step)
	}
	if err := os.MkdirAll(r.LogDir, 0o755); err != nil {
		return err
	}
	Logger.Infof("running step %v: %v", step, strings.Join(args, " "))
	cmd := exec.Command(args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if logErr := r.appendLog(step, args, output, err); logErr != nil {
		Logger.Warnf("failed to log step %v: %v", step, logErr)
	}
	if err != nil {
		return fmt.Errorf("step %v failed: err=%w, out=%v", step, err, string(output))
	}
	return nil
}

func (r *ExecToolRunner) appendLog(step string, args []string, output []byte, runErr error) error {
	file, err := os.OpenFile(r.logPath(step), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	fmt.Fprintf(file, "Command: %v\n", strings.Join(args, " "))
	if runErr != nil {
		fmt.Fprintf(file, "ERROR: %v\n", runErr)
	}
	fmt.Fprintf(file, "Output:\n%v\n%v\n", string(output), strings.Repeat("-", 50))
	return nil
}
