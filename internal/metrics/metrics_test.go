package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rawen554/uploader/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveUpload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveUpload(models.Succeeded(models.Filemoon, "u"), time.Second)
	m.ObserveUpload(models.Failed(models.Filemoon, "boom"), time.Second)
	m.ObserveUpload(models.Failed(models.Voe, "boom"), 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("filemoon", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("filemoon", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("voe", OutcomeFailure)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.uploadDuration))
}

func TestMetrics_Runs(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.RunStarted()
	m.RunStarted()
	m.RunFinished()
	m.PersistFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
}

func TestMustNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNewMetrics(reg)

	assert.Panics(t, func() { MustNewMetrics(reg) })
}
