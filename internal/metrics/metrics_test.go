package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dohr-michael/agentbus/internal/metrics"
)

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := gauge.(prometheus.Metric).Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestActiveWaitersGauge(t *testing.T) {
	before := getGaugeValue(t, metrics.ActiveWaiters)
	metrics.ActiveWaiters.Inc()
	if got := getGaugeValue(t, metrics.ActiveWaiters); got-before != 1 {
		t.Errorf("after Inc: delta = %v, want 1", got-before)
	}
	metrics.ActiveWaiters.Dec()
	if got := getGaugeValue(t, metrics.ActiveWaiters); got != before {
		t.Errorf("after Dec: = %v, want %v", got, before)
	}
}

func TestMessagesPostedCounter(t *testing.T) {
	before := getCounterValue(t, metrics.MessagesPosted)
	metrics.MessagesPosted.Inc()
	if got := getCounterValue(t, metrics.MessagesPosted); got-before != 1 {
		t.Errorf("delta = %v, want 1", got-before)
	}
}

func TestQueueDropsCounter(t *testing.T) {
	before := getCounterValue(t, metrics.QueueDropsTotal)
	metrics.QueueDropsTotal.Inc()
	if got := getCounterValue(t, metrics.QueueDropsTotal); got-before != 1 {
		t.Errorf("delta = %v, want 1", got-before)
	}
}
