package exec

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	outputExitScript string = `
#!/bin/bash
echo "stdout line"
echo "stderr line" 1>&2
exit 3`
	noTrapScript string = `
#!/bin/bash
while :
do sleep 1
done`
	trapScript string = `
#!/bin/bash
trap ':' SIGTERM
while :
do sleep 1
done`
	// the backgrounded sleep keeps the output pipes open after bash itself is gone
	grandchildScript string = `
#!/bin/bash
sleep 30 &
wait`
	// setsid moves the sleep out of the process group, so group signals never reach it
	detachedScript string = `
#!/bin/bash
setsid sleep 5 &
echo started
sleep 10`
	detachedExitScript string = `
#!/bin/bash
setsid sleep 5 &
echo started`
)

func TestUnrunnableCommand(t *testing.T) {
	cmd := NewOsExec().Command("sjkldoeiujeiuc")
	rr := RunKillableCommand(cmd, nil, 0*time.Second, io.Discard, 0)
	if rr.Error == nil {
		t.Fatal("unexpected nil error from unrunnable command")
	}
	assert.False(t, rr.Started)
}

func TestRunKillableCommandOutput(t *testing.T) {
	tf, err := setupTempScript(outputExitScript)
	if err != nil {
		t.Fatalf("failed setting up temp script file: %s", err)
	}
	defer os.Remove(tf.Name())

	var stream bytes.Buffer
	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	rr := RunKillableCommand(cmd, nil, 0*time.Second, &stream, 0)
	assert.True(t, rr.Started)

	// a non-zero exit is reported as an ExitError, output is still collected
	var e ExitError
	if !errors.As(rr.Error, &e) {
		t.Fatalf("expected ExitError, got: %v", rr.Error)
	}
	assert.Equal(t, 3, e.ExitStatus())
	assert.Equal(t, 3, rr.ProcessState.ExitCode())
	assert.Equal(t, "stdout line\n", string(rr.Stdout))
	assert.Equal(t, "stderr line\n", string(rr.Stderr))
	if !bytes.Contains(stream.Bytes(), []byte("stdout line")) || !bytes.Contains(stream.Bytes(), []byte("stderr line")) {
		t.Fatalf("expected out and err lines in stream not present. stream: %s", stream.Bytes())
	}
}

func TestRunKillableCommandNilStream(t *testing.T) {
	cmd := NewOsExec().Command("echo", "hi")
	rr := RunKillableCommand(cmd, nil, time.Second, nil, 0)
	assert.Nil(t, rr.Error)
	assert.Equal(t, "hi\n", string(rr.Stdout))
}

func TestRunKillableCommandSigterm(t *testing.T) {
	tf, err := setupTempScript(noTrapScript)
	if err != nil {
		t.Fatalf("failed setting up temp script file: %s", err)
	}
	defer os.Remove(tf.Name())

	// close channel right away so the command gets term'd immediately
	killCh := make(chan struct{})
	close(killCh)

	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	rr := RunKillableCommand(cmd, killCh, 100*time.Millisecond, io.Discard, 0)
	if rr.Error == nil {
		t.Fatal("unexpected nil error from RunKillableCommand")
	}
	// term results in !Exited and ExitCode -1, err is an ExitError
	var e *exitErrorAdapter
	if !errors.As(rr.Error, &e) {
		t.Fatal("error was not an os/exec.ExitError")
	}
	if rr.ProcessState.Exited() {
		t.Fatal("expected Exited false, got true")
	}
	if rr.ProcessState.ExitCode() != -1 {
		t.Fatalf("expected ExitCode -1, got: %d", rr.ProcessState.ExitCode())
	}
}

func TestRunKillableCommandKill(t *testing.T) {
	tf, err := setupTempScript(trapScript)
	if err != nil {
		t.Fatalf("failed setting up temp script file: %s", err)
	}
	defer os.Remove(tf.Name())

	killCh := make(chan struct{})
	go func() {
		// must wait until the script's "trap" command takes effect or the term will succeed in stopping it
		time.Sleep(1 * time.Second)
		close(killCh)
	}()

	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	rr := RunKillableCommand(cmd, killCh, 100*time.Millisecond, io.Discard, 0)
	if rr.Error == nil {
		t.Fatal("unexpected nil error from RunKillableCommand")
	}
	var e *exitErrorAdapter
	if !errors.As(rr.Error, &e) {
		t.Fatal("error was not an os/exec.ExitError")
	}
	if rr.ProcessState.Exited() {
		t.Fatal("expected Exited false, got true")
	}
}

func TestCommandTimeout(t *testing.T) {
	cmd := NewOsExec().Command("sleep", "5")
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, 1*time.Second, io.Discard, 500*time.Millisecond)
	assert.True(t, time.Since(start) < 2*time.Second)
	assert.True(t, errors.Is(rr.Error, TimeoutError))
}

func TestCommandTimeoutKillsProcessGroup(t *testing.T) {
	tf, err := setupTempScript(grandchildScript)
	if err != nil {
		t.Fatalf("failed setting up temp script file: %s", err)
	}
	defer os.Remove(tf.Name())

	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, 500*time.Millisecond, io.Discard, 300*time.Millisecond)
	assert.True(t, errors.Is(rr.Error, TimeoutError))
	// had only bash been signalled, Wait would block on the sleep holding the pipes
	assert.True(t, time.Since(start) < 10*time.Second, "took %v", time.Since(start))
}

func TestCommandTimeoutDetachedDescendant(t *testing.T) {
	tf, err := setupTempScript(detachedScript)
	require.NoError(t, err)
	defer os.Remove(tf.Name())

	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, 300*time.Millisecond, io.Discard, 300*time.Millisecond)
	elapsed := time.Since(start)
	assert.True(t, errors.Is(rr.Error, TimeoutError))
	assert.Equal(t, "started\n", string(rr.Stdout))
	// the detached sleep still holds the pipes for 5s
	assert.True(t, elapsed < 3*time.Second, "took %v", elapsed)
}

func TestCommandExitsLeavingDetachedDescendant(t *testing.T) {
	tf, err := setupTempScript(detachedExitScript)
	require.NoError(t, err)
	defer os.Remove(tf.Name())

	cmd := NewOsExec().Command("/bin/bash", tf.Name())
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, 300*time.Millisecond, io.Discard, 0)
	elapsed := time.Since(start)
	assert.Nil(t, rr.Error)
	assert.Equal(t, 0, rr.ProcessState.ExitCode())
	assert.Equal(t, "started\n", string(rr.Stdout))
	assert.True(t, elapsed < 3*time.Second, "took %v", elapsed)
}

func TestTermThenKillExitedProcessLogsNoErrors(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	cmd := NewOsExec().Command("true")
	cmd.SetProcessGroup(true)
	require.NoError(t, cmd.Run())

	doneCh := make(chan struct{})
	close(doneCh)
	assert.NoError(t, termThenKill(cmd.Process(), 50*time.Millisecond, doneCh))
	for _, e := range hook.AllEntries() {
		assert.True(t, e.Level > log.WarnLevel, "unexpected %s entry: %s", e.Level, e.Message)
	}

	// nothing to wait for either; the SIGKILL path must stay quiet too
	hook.Reset()
	assert.NoError(t, termThenKill(cmd.Process(), 10*time.Millisecond, make(chan struct{})))
	for _, e := range hook.AllEntries() {
		assert.True(t, e.Level > log.WarnLevel, "unexpected %s entry: %s", e.Level, e.Message)
		assert.NotEqual(t, "Command hasn't exited, using SIGKILL", e.Message)
	}
}

func TestCommandNoTimeout(t *testing.T) {
	cmd := NewOsExec().Command("sleep", "1")
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, 1*time.Second, io.Discard, 0)
	assert.True(t, time.Since(start) >= 1*time.Second)
	assert.Nil(t, rr.Error)
}

// TestValidatingExecer tests validating execer functionality
func TestValidatingExecer(t *testing.T) {
	expectedCmds := [][]string{{"testCmd1"}, {"testCmd2", "arg1"}}
	fakeActions := map[int]func(cmd Cmd) error{
		1: func(cmd Cmd) error {
			tCmd := cmd.(*ValidatingCmd)
			tCmd.GetStdout().Write([]byte("stdout!"))
			tCmd.GetStderr().Write([]byte("stderr!"))
			return nil
		},
	}
	ve := NewValidatingExecer(t, expectedCmds)
	defer ve.CheckAllValidated()
	ve.SetFakeActions(fakeActions)

	cmd := ve.Command("testCmd1")
	rr := RunKillableCommand(cmd, nil, 100*time.Millisecond, io.Discard, 0)
	assert.Nil(t, rr.Error)

	cmd = ve.Command("testCmd2", "arg1")
	rr = RunKillableCommand(cmd, nil, 100*time.Millisecond, io.Discard, 0)
	assert.Nil(t, rr.Error)
	assert.Equal(t, "stdout!", string(rr.Stdout))
	assert.Equal(t, "stderr!", string(rr.Stderr))
}

func setupTempScript(contents string) (*os.File, error) {
	tf, err := os.CreateTemp("", "script")
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(tf.Name(), 0777); err != nil {
		os.Remove(tf.Name())
		return nil, err
	}
	if _, err := tf.Write([]byte(strings.TrimPrefix(contents, "\n"))); err != nil {
		os.Remove(tf.Name())
		return nil, err
	}
	return tf, nil
}

func TestTruncateCmd(t *testing.T) {
	cmd := NewOsExec().Command("hello")
	assert.Equal(t, "hello", truncateCmd(cmd))

	cmd = NewOsExec().Command("hello", "world")
	assert.Equal(t, "hello world", truncateCmd(cmd))

	cmd = NewOsExec().Command("/foo/bar/xyz/hello", "world")
	assert.Equal(t, "hello world", truncateCmd(cmd))
}
