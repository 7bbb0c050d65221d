package database

import (
	"fmt"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DBService {
	t.Helper()
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func insertSession(t *testing.T, svc *DBService, id string, start int64) {
	t.Helper()
	if err := svc.InsertSession(&Session{SessionID: id, StartTime: start}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
}

// TestNewDBService verifies that the database initializes correctly
// with the embedded schema using an in-memory SQLite instance.
func TestNewDBService(t *testing.T) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService(:memory:) failed: %v", err)
	}
	defer svc.Close()

	if svc.Path() != ":memory:" {
		t.Errorf("expected path=:memory:, got %s", svc.Path())
	}
}

// TestInsertAndQuerySession verifies the session lifecycle:
// insert → end → query → verify fields match.
func TestInsertAndQuerySession(t *testing.T) {
	svc := newTestDB(t)

	now := time.Now().UnixNano()
	sess := &Session{
		SessionID: "sess-001",
		StartTime: now,
		Metadata:  map[string]string{"sun": "fixed"},
	}
	if err := svc.InsertSession(sess); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	// Ending the session keeps the metadata and start time.
	end := now + int64(time.Minute)
	if err := svc.InsertSession(&Session{SessionID: "sess-001", StartTime: now, EndTime: &end, Frames: 1800}); err != nil {
		t.Fatalf("InsertSession (end) failed: %v", err)
	}

	sessions, err := svc.QuerySessions(SessionFilter{Limit: 10})
	if err != nil {
		t.Fatalf("QuerySessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.EndTime == nil || *got.EndTime != end {
		t.Errorf("expected end_time=%d, got %v", end, got.EndTime)
	}
	if got.Frames != 1800 {
		t.Errorf("expected frames=1800, got %d", got.Frames)
	}
	if got.Metadata["sun"] != "fixed" {
		t.Errorf("expected metadata sun=fixed, got %v", got.Metadata)
	}
}

// TestSessionFramesNeverDecrease verifies that a stale upsert does not
// lower the recorded frame count.
func TestSessionFramesNeverDecrease(t *testing.T) {
	svc := newTestDB(t)

	if err := svc.InsertSession(&Session{SessionID: "s", StartTime: 1, Frames: 50}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if err := svc.InsertSession(&Session{SessionID: "s", StartTime: 1, Frames: 10}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	sessions, err := svc.QuerySessions(SessionFilter{})
	if err != nil {
		t.Fatalf("QuerySessions failed: %v", err)
	}
	if sessions[0].Frames != 50 {
		t.Errorf("expected frames=50, got %d", sessions[0].Frames)
	}
}

// TestInsertMotionUpdatesOutcome verifies that re-inserting a motion
// moves it from running to its terminal outcome.
func TestInsertMotionUpdatesOutcome(t *testing.T) {
	svc := newTestDB(t)
	insertSession(t, svc, "sess-002", 1000)

	m := &Motion{
		SessionID:  "sess-002",
		MotionID:   1,
		Kind:       "linear",
		Outcome:    "running",
		From:       Vec3{X: -3, Y: 1, Z: 3},
		To:         Vec3{X: 0, Y: 0, Z: 3},
		StartTime:  2000,
		DurationMs: 1500,
	}
	if err := svc.InsertMotion(m); err != nil {
		t.Fatalf("InsertMotion failed: %v", err)
	}

	end := int64(2000 + 1500*int64(time.Millisecond))
	done := *m
	done.Outcome = "completed"
	done.EndTime = &end
	done.Frames = 45
	if err := svc.InsertMotion(&done); err != nil {
		t.Fatalf("InsertMotion (complete) failed: %v", err)
	}

	motions, err := svc.QueryMotions(MotionFilter{})
	if err != nil {
		t.Fatalf("QueryMotions failed: %v", err)
	}
	if len(motions) != 1 {
		t.Fatalf("expected 1 motion, got %d", len(motions))
	}
	got := motions[0]
	if got.Outcome != "completed" {
		t.Errorf("expected outcome=completed, got %s", got.Outcome)
	}
	if got.Frames != 45 {
		t.Errorf("expected frames=45, got %d", got.Frames)
	}
	if got.From != (Vec3{X: -3, Y: 1, Z: 3}) {
		t.Errorf("expected from=(-3,1,3), got %+v", got.From)
	}
	if got.EndTime == nil || *got.EndTime != end {
		t.Errorf("expected end_time=%d, got %v", end, got.EndTime)
	}
}

// TestMotionRequiresSession verifies the foreign key to sessions.
func TestMotionRequiresSession(t *testing.T) {
	svc := newTestDB(t)

	err := svc.InsertMotion(&Motion{SessionID: "missing", MotionID: 1, Kind: "linear", Outcome: "running"})
	if err == nil {
		t.Fatal("expected foreign key error for unknown session, got nil")
	}
}

// TestBatchInsertMotions verifies batch insertion within a transaction
// and the filters on kind, outcome and session.
func TestBatchInsertMotions(t *testing.T) {
	svc := newTestDB(t)
	insertSession(t, svc, "a", 1)
	insertSession(t, svc, "b", 2)

	var batch []*Motion
	for i := 1; i <= 6; i++ {
		kind, outcome := "linear", "completed"
		if i%2 == 0 {
			kind = "curved"
		}
		if i == 3 {
			outcome = "superseded"
		}
		sess := "a"
		if i > 4 {
			sess = "b"
		}
		batch = append(batch, &Motion{
			SessionID:  sess,
			MotionID:   int64(i),
			Kind:       kind,
			Outcome:    outcome,
			StartTime:  int64(i * 100),
			DurationMs: 1200,
		})
	}
	if err := svc.BatchInsertMotions(batch); err != nil {
		t.Fatalf("BatchInsertMotions failed: %v", err)
	}

	all, err := svc.QueryMotions(MotionFilter{})
	if err != nil {
		t.Fatalf("QueryMotions failed: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 motions, got %d", len(all))
	}
	if all[0].MotionID != 6 {
		t.Errorf("expected most recent first (id 6), got %d", all[0].MotionID)
	}

	curved := "curved"
	got, err := svc.QueryMotions(MotionFilter{Kind: &curved})
	if err != nil {
		t.Fatalf("QueryMotions(kind) failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 curved motions, got %d", len(got))
	}

	superseded := "superseded"
	got, err = svc.QueryMotions(MotionFilter{Outcome: &superseded})
	if err != nil {
		t.Fatalf("QueryMotions(outcome) failed: %v", err)
	}
	if len(got) != 1 || got[0].MotionID != 3 {
		t.Errorf("expected motion 3 superseded, got %+v", got)
	}

	sessB := "b"
	got, err = svc.QueryMotions(MotionFilter{SessionID: &sessB})
	if err != nil {
		t.Fatalf("QueryMotions(session) failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 motions in session b, got %d", len(got))
	}

	since, until := int64(200), int64(400)
	got, err = svc.QueryMotions(MotionFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("QueryMotions(range) failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 motions in [200, 400], got %d", len(got))
	}
}

// TestBatchInsertRollsBack verifies that a failing row discards the
// whole batch.
func TestBatchInsertRollsBack(t *testing.T) {
	svc := newTestDB(t)
	insertSession(t, svc, "a", 1)

	batch := []*Motion{
		{SessionID: "a", MotionID: 1, Kind: "linear", Outcome: "completed", StartTime: 1},
		{SessionID: "nope", MotionID: 2, Kind: "linear", Outcome: "completed", StartTime: 2},
	}
	if err := svc.BatchInsertMotions(batch); err == nil {
		t.Fatal("expected batch error, got nil")
	}

	got, err := svc.QueryMotions(MotionFilter{})
	if err != nil {
		t.Fatalf("QueryMotions failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected rollback to leave 0 motions, got %d", len(got))
	}
}

// TestQueryPagination verifies limit and offset handling, including the
// default limit of 100.
func TestQueryPagination(t *testing.T) {
	svc := newTestDB(t)

	for i := 0; i < 120; i++ {
		insertSession(t, svc, fmt.Sprintf("sess-%03d", i), int64(i))
	}

	sessions, err := svc.QuerySessions(SessionFilter{})
	if err != nil {
		t.Fatalf("QuerySessions failed: %v", err)
	}
	if len(sessions) != 100 {
		t.Errorf("expected default limit of 100, got %d", len(sessions))
	}

	sessions, err = svc.QuerySessions(SessionFilter{Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("QuerySessions failed: %v", err)
	}
	if len(sessions) != 5 {
		t.Fatalf("expected 5 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != "sess-109" {
		t.Errorf("expected sess-109 at offset 10, got %s", sessions[0].SessionID)
	}

	since := int64(115)
	sessions, err = svc.QuerySessions(SessionFilter{Since: &since})
	if err != nil {
		t.Fatalf("QuerySessions(since) failed: %v", err)
	}
	if len(sessions) != 5 {
		t.Errorf("expected 5 sessions since 115, got %d", len(sessions))
	}
}

// TestGetMotionStats verifies aggregation across and within sessions.
func TestGetMotionStats(t *testing.T) {
	svc := newTestDB(t)
	insertSession(t, svc, "a", 1)
	insertSession(t, svc, "b", 2)

	end := func(v int64) *int64 { return &v }
	ms := int64(time.Millisecond)
	batch := []*Motion{
		{SessionID: "a", MotionID: 1, Kind: "linear", Outcome: "completed", StartTime: 0, EndTime: end(1500 * ms), Frames: 40},
		{SessionID: "a", MotionID: 2, Kind: "curved", Outcome: "superseded", StartTime: 0, EndTime: end(500 * ms), Frames: 20},
		{SessionID: "b", MotionID: 1, Kind: "curved", Outcome: "cancelled", StartTime: 0, EndTime: end(1000 * ms), Frames: 30},
		{SessionID: "b", MotionID: 2, Kind: "linear", Outcome: "running", StartTime: 0},
	}
	if err := svc.BatchInsertMotions(batch); err != nil {
		t.Fatalf("BatchInsertMotions failed: %v", err)
	}

	stats, err := svc.GetMotionStats("")
	if err != nil {
		t.Fatalf("GetMotionStats failed: %v", err)
	}
	if stats.TotalMotions != 4 || stats.Sessions != 2 {
		t.Errorf("expected 4 motions in 2 sessions, got %d in %d", stats.TotalMotions, stats.Sessions)
	}
	if stats.Linear != 2 || stats.Curved != 2 {
		t.Errorf("expected 2 linear and 2 curved, got %d and %d", stats.Linear, stats.Curved)
	}
	if stats.Completed != 1 || stats.Superseded != 1 || stats.Cancelled != 1 || stats.Running != 1 {
		t.Errorf("unexpected outcome counts: %+v", stats)
	}
	if stats.TotalFrames != 90 {
		t.Errorf("expected total_frames=90, got %d", stats.TotalFrames)
	}
	if stats.AvgElapsedMs != 1000 {
		t.Errorf("expected avg_elapsed_ms=1000, got %f", stats.AvgElapsedMs)
	}

	stats, err = svc.GetMotionStats("a")
	if err != nil {
		t.Fatalf("GetMotionStats(a) failed: %v", err)
	}
	if stats.TotalMotions != 2 || stats.Sessions != 1 {
		t.Errorf("expected 2 motions in session a, got %d in %d", stats.TotalMotions, stats.Sessions)
	}
	if stats.AvgFrameCount != 30 {
		t.Errorf("expected avg_frame_count=30, got %f", stats.AvgFrameCount)
	}
}

// TestGetMotionStatsEmpty verifies that an empty journal aggregates to zero.
func TestGetMotionStatsEmpty(t *testing.T) {
	svc := newTestDB(t)

	stats, err := svc.GetMotionStats("")
	if err != nil {
		t.Fatalf("GetMotionStats failed: %v", err)
	}
	if stats.TotalMotions != 0 || stats.AvgElapsedMs != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
