package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AppendOrdersBySeq(t *testing.T) {
	r := NewRegistry()

	ctx := Context{RangeID: "basic"}
	r.Append(KindShell, ctx, "echo hi", 0, 0, "hi", "", false)
	r.Append(KindSSH, ctx, "ls", 0, 0, "", "", false)
	r.Append(KindHypervisor, ctx, "virsh start x", 1, 0, "", "boom", false)

	recs := r.Records("basic")
	require.Len(t, recs, 3)
	assert.Equal(t, int64(1), recs[0].Seq)
	assert.Equal(t, int64(2), recs[1].Seq)
	assert.Equal(t, int64(3), recs[2].Seq)
}

func TestRegistry_AggregateSuccessFailure(t *testing.T) {
	r := NewRegistry()
	ctx := Context{RangeID: "basic"}

	r.Append(KindShell, ctx, "ok", 0, 0, "", "", false)
	assert.Equal(t, "SUCCESS", r.Aggregate("basic", false))

	r.Append(KindShell, ctx, "bad", 1, 0, "", "", false)
	assert.Equal(t, "FAILURE", r.Aggregate("basic", false))
}

func TestRegistry_IgnoreErrorsExcludedFromFailureCount(t *testing.T) {
	r := NewRegistry()
	ctx := Context{RangeID: "basic"}

	r.Append(KindShell, ctx, "bad-but-ignored", 1, 0, "", "", true)
	assert.Equal(t, 0, r.Failures("basic"))
	assert.Equal(t, "SUCCESS", r.Aggregate("basic", false))
}

func TestRegistry_RollbackForcesFailureEvenWithoutFailedRecords(t *testing.T) {
	r := NewRegistry()
	ctx := Context{RangeID: "basic"}
	r.Append(KindShell, ctx, "ok", 0, 0, "", "", false)

	assert.Equal(t, "FAILURE", r.Aggregate("basic", true))
}

func TestRegistry_RunRaisesOnNonZeroExit(t *testing.T) {
	r := NewRegistry()
	ctx := Context{RangeID: "basic"}

	_, err := r.Run(KindShell, ctx, "false", false, func() (string, string, int, error) {
		return "", "nope", 1, nil
	})
	require.Error(t, err)

	_, err = r.Run(KindShell, ctx, "false", true, func() (string, string, int, error) {
		return "", "nope", 1, nil
	})
	require.NoError(t, err)
}

func TestRegistry_RunPropagatesUnderlyingError(t *testing.T) {
	r := NewRegistry()
	ctx := Context{RangeID: "basic"}
	sentinel := errors.New("connect refused")

	_, err := r.Run(KindSSH, ctx, "ssh host cmd", false, func() (string, string, int, error) {
		return "", "", 255, sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestRegistry_CreationLogAndStatusFile(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()

	require.NoError(t, r.OpenRangeLog("basic", dir))
	r.Append(KindShell, Context{RangeID: "basic"}, "echo hi", 0, 0, "hi", "", false)
	require.NoError(t, r.WriteStatusFile("basic", false, 0))
	require.NoError(t, r.CloseRangeLog("basic"))

	status, err := readFile(filepath.Join(dir, "status"))
	require.NoError(t, err)
	assert.Contains(t, status, "SUCCESS")

	logContents, err := readFile(filepath.Join(dir, "creation.log"))
	require.NoError(t, err)
	assert.Contains(t, logContents, "echo hi")
	assert.Contains(t, logContents, "Creation result: SUCCESS")
}

func TestRedact_StripsPasswordFlag(t *testing.T) {
	cmd := redact("useradd --password s3cr3t trainee")
	assert.NotContains(t, cmd, "s3cr3t")
	assert.Contains(t, cmd, "***")
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}
