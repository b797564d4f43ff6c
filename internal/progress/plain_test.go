package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainReporter_StepUsesLegacyFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf, false)

	r.StartPhase("Clone VMs")
	r.Step("cloning desktop")

	assert.Contains(t, buf.String(), "* INFO: cyris: cloning desktop")
}

func TestPlainReporter_Finish(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf, false)

	r.Finish(true, 12500*time.Millisecond)
	assert.Contains(t, buf.String(), "Creation result: SUCCESS (took 12.5s)")

	buf.Reset()
	r.Finish(false, 1*time.Second)
	assert.Contains(t, buf.String(), "Creation result: FAILURE (took 1.0s)")
}
