package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/metrics"
)

func TestNew_RegistersCollectors(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()

	m := metrics.New(reg)
	m.Sessions.Inc()
	m.Events.WithLabelValues("sendMessage", metrics.OutcomeOK).Inc()
	m.Uploads.WithLabelValues("image", metrics.OutcomeRejected).Inc()

	families, err := reg.Gather()
	req.NoError(err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	req.ElementsMatch([]string{"chat_relay_sessions", "chat_relay_events_total", "chat_blob_uploads_total"}, names)
	req.Equal(1.0, testutil.ToFloat64(m.Sessions))
}

func TestNew_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)

	require.Panics(t, func() { metrics.New(reg) })
}
