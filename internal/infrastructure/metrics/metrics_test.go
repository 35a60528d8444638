package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersNamespacedMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// vectors only show up once a series exists
	m.EntriesCreated.WithLabelValues("EXPENSE").Inc()
	m.EntryMutations.WithLabelValues("delete", "ALL").Inc()
	m.BalanceQueries.WithLabelValues("current").Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	names := make(map[string]bool, len(families))
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "walletledger_") {
			t.Fatalf("metric %q is missing the walletledger_ prefix", family.GetName())
		}
		names[family.GetName()] = true
	}

	for _, want := range []string{
		"walletledger_entries_created_total",
		"walletledger_entry_mutations_total",
		"walletledger_accounts_created_total",
		"walletledger_snapshots_written_total",
	} {
		if !names[want] {
			t.Fatalf("expected %s to be registered", want)
		}
	}
}

func TestNewTwiceOnOneRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(registry)
}

func TestNewWithoutRegistry(t *testing.T) {
	first, second := New(nil), New(nil)

	first.SnapshotsWritten.Add(3)
	if got := testutil.ToFloat64(first.SnapshotsWritten); got != 3 {
		t.Fatalf("expected counter to be usable unregistered, got %v", got)
	}
	if got := testutil.ToFloat64(second.SnapshotsWritten); got != 0 {
		t.Fatalf("expected independent instances, got %v", got)
	}
}
