package store

import (
	"encoding/json"
	"testing"

	"github.com/powerautomation/domainmcp/errors"
	dmcptest "github.com/powerautomation/domainmcp/internal/testing"
	"github.com/powerautomation/domainmcp/monitor"
	"github.com/powerautomation/domainmcp/registry"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()

	s := New(dmcptest.CreateTestDB(t), nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return s
}

func sampleStatus(total int) registry.Status {
	return registry.Status{
		TotalDomains:         total,
		RoutingEngineTrained: total > 0,
		DiscoveryPaths:       []string{"~/.domainmcp/domains"},
		Domains:              map[string]registry.DomainStatus{},
	}
}

func sampleStats(requests int64) monitor.OverallStats {
	return monitor.OverallStats{
		TotalRequests: requests,
		ActiveDomains: 1,
		Domains: map[string]monitor.DomainStats{
			"insurance_mcp": {DomainID: "insurance_mcp", RequestCount: requests},
		},
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestSaveAndLatest(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.Save(sampleStatus(1), sampleStats(3))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	id2, err := s.Save(sampleStatus(2), sampleStats(9))
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected monotonically increasing ids, got %d then %d", id1, id2)
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != id2 {
		t.Errorf("expected latest id %d, got %d", id2, latest.ID)
	}
	if latest.TakenAt.IsZero() {
		t.Error("expected taken_at to be set")
	}

	var status registry.Status
	if err := json.Unmarshal(latest.Status, &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.TotalDomains != 2 {
		t.Errorf("expected 2 domains in latest status, got %d", status.TotalDomains)
	}

	var stats monitor.OverallStats
	if err := json.Unmarshal(latest.Stats, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalRequests != 9 {
		t.Errorf("expected 9 total requests, got %d", stats.TotalRequests)
	}
	if stats.Domains["insurance_mcp"].RequestCount != 9 {
		t.Errorf("expected per-domain counts to round-trip, got %+v", stats.Domains)
	}
}

func TestLatestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Latest()
	if !errors.Is(err, errors.ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 5; i++ {
		if _, err := s.Save(sampleStatus(i), sampleStats(int64(i))); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	snapshots, err := s.List(3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snapshots))
	}
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].ID >= snapshots[i-1].ID {
			t.Errorf("expected descending ids, got %d before %d", snapshots[i-1].ID, snapshots[i].ID)
		}
	}

	var status registry.Status
	if err := json.Unmarshal(snapshots[0].Status, &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.TotalDomains != 5 {
		t.Errorf("expected newest snapshot first, got %d domains", status.TotalDomains)
	}
}

func TestListDefaultLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 4; i++ {
		if _, err := s.Save(sampleStatus(i), sampleStats(int64(i))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	snapshots, err := s.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 4 {
		t.Errorf("expected all 4 snapshots under the default limit, got %d", len(snapshots))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	s := newTestStore(t)

	var lastID int64
	for i := 1; i <= 5; i++ {
		id, err := s.Save(sampleStatus(i), sampleStats(int64(i)))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		lastID = id
	}

	removed, err := s.Prune(2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 snapshots pruned, got %d", removed)
	}

	snapshots, err := s.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots to remain, got %d", len(snapshots))
	}
	if snapshots[0].ID != lastID {
		t.Errorf("expected newest snapshot %d to survive, got %d", lastID, snapshots[0].ID)
	}

	// A second prune at the same bound is a no-op.
	removed, err = s.Prune(2)
	if err != nil {
		t.Fatalf("second Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing left to prune, got %d", removed)
	}
}

func TestPruneKeepZeroClearsStore(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save(sampleStatus(1), sampleStats(1)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := s.Prune(0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 snapshot pruned, got %d", removed)
	}

	if _, err := s.Latest(); !errors.Is(err, errors.ErrNoSnapshot) {
		t.Errorf("expected empty store after pruning everything, got %v", err)
	}
}
