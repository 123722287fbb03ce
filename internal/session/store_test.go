package session

import (
	"context"
	"testing"

	"sprocket/internal/config"
	"sprocket/internal/instance"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SessionDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func testInstances(t *testing.T) []*instance.Instance {
	t.Helper()
	shot, err := instance.New("shot", "shotMain", "Main", "/shots/sh010", "")
	if err != nil {
		t.Fatal(err)
	}
	plate, err := instance.New("plate", "plateMain", "Main", "/shots/sh010", "comp")
	if err != nil {
		t.Fatal(err)
	}
	plate.ParentInstanceID = shot.ID
	version := 3
	plate.Version = &version
	plate.Representations = []instance.Representation{{
		Name:       "exr",
		Ext:        "exr",
		Files:      []string{"sh010.1001.exr", "sh010.1002.exr"},
		StagingDir: "/footage/sh010",
	}}
	return []*instance.Instance{shot, plate}
}

func TestCreateAndLoadSession(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, "demo", "csv", "/manifests/batch.csv", testInstances(t))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.Project != "demo" || created.SourceKind != "csv" {
		t.Errorf("session = %+v", created)
	}
	if created.InstanceCount != 2 {
		t.Errorf("instance count = %d, want 2", created.InstanceCount)
	}

	instances, err := store.Instances(ctx, created.ID)
	if err != nil {
		t.Fatalf("Instances: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("loaded %d instances", len(instances))
	}
	if instances[0].ProductName != "shotMain" || instances[1].ProductName != "plateMain" {
		t.Error("instance order not preserved")
	}
	if instances[1].ParentInstanceID != instances[0].ID {
		t.Error("parent linkage lost in round trip")
	}
	if instances[1].Version == nil || *instances[1].Version != 3 {
		t.Error("version lost in round trip")
	}
	if len(instances[1].Representations) != 1 || len(instances[1].Representations[0].Files) != 2 {
		t.Errorf("representations = %+v", instances[1].Representations)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "demo", "csv", "/a.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.CreateSession(ctx, "demo", "editorial", "/cut.edl", testInstances(t))
	if err != nil {
		t.Fatal(err)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Error("sessions not ordered newest first")
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := testStore(t)
	session, err := store.GetSession(context.Background(), 999)
	if err != nil {
		t.Fatal(err)
	}
	if session != nil {
		t.Fatalf("expected nil for missing session, got %+v", session)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, "demo", "csv", "/a.csv", testInstances(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteSession(ctx, created.ID); err != nil {
		t.Fatal(err)
	}

	instances, err := store.Instances(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 0 {
		t.Error("instances survived session deletion")
	}
}

func TestClear(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.CreateSession(ctx, "demo", "csv", "/a.csv", nil); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Error("sessions survived clear")
	}
}

func TestOpenRefusesSecondWriter(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SessionDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	first, err := Open(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	if _, err := Open(&cfg); err == nil {
		t.Fatal("expected second writer to be refused")
	}
}
