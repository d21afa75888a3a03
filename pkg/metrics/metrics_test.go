package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSync(t *testing.T) {
	r := NewRecorder()
	r.ObserveSync("tools", OutcomeOK, 10*time.Millisecond)
	r.ObserveSync("tools", OutcomeOK, 20*time.Millisecond)
	r.ObserveSync("tools", OutcomeFailed, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.syncTotal.WithLabelValues("tools", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncTotal.WithLabelValues("tools", OutcomeFailed)))
}

func TestObserveDelete(t *testing.T) {
	r := NewRecorder()
	r.ObserveDelete("skill", OutcomeRejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deleteTotal.WithLabelValues("skill", OutcomeRejected)))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveSync("tools", OutcomeOK, time.Second)
		r.ObserveDelete("tool", OutcomeOK)
		_ = r.Handler()
	})
}
