//go:build unix

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string) []string {
	return []string{"sh", "-c", script}
}

func TestRealCommandRunner(t *testing.T) {
	runner := RealCommandRunner{}
	ctx := context.Background()

	t.Run("SeparatesStreams", func(t *testing.T) {
		res, err := runner.RunCommand(ctx, Command{
			Args:    shell("printf out; printf err >&2"),
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, "out", res.Stdout)
		assert.Equal(t, "err", res.Stderr)
		assert.Equal(t, 0, res.ExitCode)
		assert.False(t, res.TimedOut)
	})

	t.Run("FeedsStdin", func(t *testing.T) {
		res, err := runner.RunCommand(ctx, Command{
			Args:    []string{"cat"},
			Stdin:   "hello\nworld",
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, "hello\nworld", res.Stdout)
	})

	t.Run("ClosesStdin", func(t *testing.T) {
		start := time.Now()
		res, err := runner.RunCommand(ctx, Command{
			Args:    []string{"cat"},
			Timeout: 10 * time.Second,
		})
		require.NoError(t, err)
		assert.False(t, res.TimedOut)
		assert.Empty(t, res.Stdout)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("NonZeroExitIsNotAnError", func(t *testing.T) {
		res, err := runner.RunCommand(ctx, Command{
			Args:    shell("echo failing >&2; exit 3"),
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "failing\n", res.Stderr)
	})

	t.Run("UsesGivenEnvironment", func(t *testing.T) {
		t.Setenv("CODERUN_LEAK", "visible")
		res, err := runner.RunCommand(ctx, Command{
			Args:    shell(`printf "%s|%s" "$FOO" "$CODERUN_LEAK"`),
			Env:     []string{"FOO=bar"},
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, "bar|", res.Stdout)
	})

	t.Run("RunsInDir", func(t *testing.T) {
		dir := t.TempDir()
		res, err := runner.RunCommand(ctx, Command{
			Args:    []string{"pwd", "-P"},
			Dir:     dir,
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		resolved, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		assert.Equal(t, resolved, strings.TrimSpace(res.Stdout))
	})

	t.Run("MissingBinary", func(t *testing.T) {
		_, err := runner.RunCommand(ctx, Command{
			Args:    []string{"coderun-no-such-interpreter"},
			Timeout: time.Minute,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "coderun-no-such-interpreter")
	})

	t.Run("EmptyArgs", func(t *testing.T) {
		_, err := runner.RunCommand(ctx, Command{Timeout: time.Minute})
		require.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("TimesOut", func(t *testing.T) {
		var hookCalled bool
		start := time.Now()
		res, err := runner.RunCommand(ctx, Command{
			Args:      shell("echo started; while :; do :; done"),
			Timeout:   300 * time.Millisecond,
			OnTimeout: func() { hookCalled = true },
		})
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.True(t, res.TimedOut)
		assert.Empty(t, res.Stdout)
		assert.Empty(t, res.Stderr)
		assert.True(t, hookCalled)
		assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
		assert.Less(t, elapsed, 3*time.Second)
	})

	t.Run("IgnoresCallerCancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		res, err := runner.RunCommand(cancelled, Command{
			Args:    shell("sleep 0.2; echo done"),
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		assert.False(t, res.TimedOut)
		assert.Equal(t, "done\n", res.Stdout)
	})
}

func TestRealCommandRunnerKillsDescendants(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("requires procfs")
	}

	dir := t.TempDir()
	pidFile := filepath.Join(dir, "child.pid")

	res, err := RealCommandRunner{}.RunCommand(context.Background(), Command{
		Args:    shell("sleep 30 & echo $! > child.pid; wait"),
		Dir:     dir,
		Timeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.True(t, res.TimedOut)

	pid := readPid(t, pidFile)

	assert.Eventually(t, func() bool { return !processAlive(pid) }, 5*time.Second, 50*time.Millisecond,
		"grandchild %d survived the deadline", pid)
}

func TestRealCommandRunnerBackgroundDescendant(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("requires procfs")
	}

	t.Run("HoldingStdout", func(t *testing.T) {
		dir := t.TempDir()

		start := time.Now()
		res, err := RealCommandRunner{}.RunCommand(context.Background(), Command{
			Args:    shell("echo hi; sleep 30 & echo $! > child.pid"),
			Dir:     dir,
			Timeout: 10 * time.Second,
		})
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.False(t, res.TimedOut)
		assert.Equal(t, "hi\n", res.Stdout)
		assert.Equal(t, 0, res.ExitCode)
		assert.Less(t, elapsed, 5*time.Second)

		pid := readPid(t, filepath.Join(dir, "child.pid"))
		assert.Eventually(t, func() bool { return !processAlive(pid) }, 5*time.Second, 50*time.Millisecond,
			"background process %d survived the run", pid)
	})

	t.Run("Detached", func(t *testing.T) {
		dir := t.TempDir()

		res, err := RealCommandRunner{}.RunCommand(context.Background(), Command{
			Args:    shell("sleep 30 >/dev/null 2>&1 & echo $! > child.pid; echo done"),
			Dir:     dir,
			Timeout: 10 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "done\n", res.Stdout)

		pid := readPid(t, filepath.Join(dir, "child.pid"))
		assert.Eventually(t, func() bool { return !processAlive(pid) }, 5*time.Second, 50*time.Millisecond,
			"background process %d survived the run", pid)
	})
}

func readPid(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	return pid
}

// processAlive reports whether pid exists and is not a zombie.
func processAlive(pid int) bool {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	// The state field follows the parenthesised command name.
	stat := string(data)
	idx := strings.LastIndexByte(stat, ')')
	if idx < 0 || idx+2 >= len(stat) {
		return false
	}
	return stat[idx+2] != 'Z'
}

func TestBaseEnvironment(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")

	env := BaseEnvironment([]string{"PYTHONHASHSEED=0"})
	assert.Equal(t, []string{
		"PATH=/usr/bin:/bin",
		"LANG=C.UTF-8",
		"PYTHONIOENCODING=utf-8",
		"PYTHONHASHSEED=0",
	}, env)
}

func TestInterpreterArgs(t *testing.T) {
	assert.Equal(t, []string{"python3", "-c", "print(1)"}, InterpreterArgs(Interpreter, "print(1)"))
}
