package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeFixtures(home))

	stdout, stderr, err := runRoland(t, binaryPath, home, nil, "macro", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "shields up")

	_, stderr, err = runRoland(t, binaryPath, home, nil,
		"macro", "create",
		"--trigger", "panic mode",
		"--action", "ctrl plus alt plus p",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runRoland(t, binaryPath, home, nil, "say", "roland panic mode")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "Executing panic mode macro, Commander.\n", stdout)
	assert.Contains(t, stderr, "[keys] combo ctrl+alt+p")

	stdout, stderr, err = runRoland(t, binaryPath, home, strings.NewReader("shields up\nagain\n"), "listen")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Shields raised, Commander.")
	assert.Contains(t, stdout, "Repeating last command, Commander.")
	assert.Equal(t, 2, strings.Count(stderr, "[keys] press f7"))
}

func TestSendReachesListener(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeFixtures(home))

	listener := exec.Command(binaryPath, "listen", "--socket", "--stdin=false")
	listener.Env = append(os.Environ(), "HOME="+home)
	var listenerErr bytes.Buffer
	listener.Stderr = &listenerErr
	require.NoError(t, listener.Start())
	t.Cleanup(func() {
		_ = listener.Process.Signal(syscall.SIGTERM)
		_ = listener.Wait()
	})

	socketPath := filepath.Join(home, ".roland", "roland.sock")
	require.Eventually(t, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond, "listener never created %s", socketPath)

	stdout, stderr, err := runRoland(t, binaryPath, home, nil, "send", "--json", "gear", "down")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, `"response": "Landing gear deployed, Commander."`)
	assert.Contains(t, stdout, `"action": "press n"`)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "roland-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/roland")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build roland binary: %s", string(output))
	return binaryPath
}

func runRoland(t *testing.T, binaryPath, home string, stdin *strings.Reader, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeFixtures(home string) error {
	configDir := filepath.Join(home, ".roland")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	config := `log.level = "error"

[llm]
enabled = false

[keys]
backend = "console"

[speech]
backend = "console"
`
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600); err != nil {
		return err
	}

	macros := `version = 1

[[macros]]
id = "3f1c8e2a-4b5d-4e6f-8a9b-0c1d2e3f4a5b"
trigger_phrase = "shields up"
keys = ["f7"]
action_type = "press"
response = "Shields raised, Commander."
created_at = "2026-01-02T15:04:05Z"
`

	return os.WriteFile(filepath.Join(configDir, "macros.toml"), []byte(macros), 0o600)
}
