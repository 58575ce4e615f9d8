package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// buildReport creates a report for http://x/ whose graph holds root plus
// the given pages; pages listed in broken are marked broken with a 404.
func buildReport(at time.Time, pages []string, broken ...string) *model.SiteReport {
	g := linkgraph.New()
	root, _ := g.SetRoot("http://x/", linkgraph.NodeAttrs{ResponseCode: linkgraph.Int(200)})
	for _, p := range pages {
		attrs := linkgraph.NodeAttrs{ResponseCode: linkgraph.Int(200)}
		if slices.Contains(broken, p) {
			attrs = linkgraph.NodeAttrs{ResponseCode: linkgraph.Int(404), Broken: linkgraph.Bool(true)}
		}
		g.AddEdge(root, g.GetOrCreateNode(p, attrs))
	}

	r := model.NewSiteReport("http://x/")
	r.GeneratedAt = at
	r.Graph = g
	r.DeadLinks = model.FindDeadLinks(g)
	r.Crawl = &model.CrawlInfo{PagesFetched: len(pages) + 1}
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveCrawl(context.Background(), buildReport(time.Now(), nil)); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()
		sites, err := db.ListSites(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(sites, []string{"x"}) {
			t.Errorf("unexpected sites %v", sites)
		}
	})
}

func TestSaveAndGetCrawl(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	r := buildReport(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), []string{"http://x/a", "http://x/gone"}, "http://x/gone")
	id, err := db.SaveCrawl(ctx, r)
	if err != nil {
		t.Fatalf("SaveCrawl failed: %v", err)
	}

	got, err := db.GetCrawl(ctx, id)
	if err != nil {
		t.Fatalf("GetCrawl failed: %v", err)
	}
	if got.Site != "x" || got.Root != "http://x/" {
		t.Errorf("unexpected metadata %+v", got.CrawlMetadata)
	}
	if !got.Timestamp.Equal(r.GeneratedAt) {
		t.Errorf("expected timestamp %v, got %v", r.GeneratedAt, got.Timestamp)
	}
	if got.Summary.Broken != 1 || got.Summary.Pages != 3 {
		t.Errorf("unexpected summary %+v", got.Summary)
	}
	if got.PagesFetched != 3 {
		t.Errorf("expected 3 pages fetched, got %d", got.PagesFetched)
	}
	if got.Graph.Len() != 3 || got.Graph.Root().URL != "http://x/" {
		t.Errorf("graph not restored: %d nodes", got.Graph.Len())
	}

	data, err := r.Graph.Serialize(linkgraph.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got.Digest != Digest(data) || len(got.Digest) != 64 {
		t.Errorf("unexpected digest %q", got.Digest)
	}
}

func TestSaveCrawlWithoutGraph(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.SaveCrawl(context.Background(), model.NewSiteReport("http://x/")); !errors.Is(err, ErrNoGraph) {
		t.Errorf("expected ErrNoGraph, got %v", err)
	}
}

func TestGetCrawlNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.GetCrawl(context.Background(), 42); !errors.Is(err, ErrCrawlNotFound) {
		t.Errorf("expected ErrCrawlNotFound, got %v", err)
	}
	if err := db.DeleteCrawl(context.Background(), 42); !errors.Is(err, ErrCrawlNotFound) {
		t.Errorf("expected ErrCrawlNotFound, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []int64
	for i := range 3 {
		id, err := db.SaveCrawl(ctx, buildReport(base.Add(time.Duration(i)*500*time.Millisecond), nil))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	other := buildReport(base, nil)
	other.Site = "y"
	if _, err := db.SaveCrawl(ctx, other); err != nil {
		t.Fatal(err)
	}

	history, err := db.History(ctx, "x", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 crawls, got %d", len(history))
	}
	if history[0].ID != ids[2] || history[2].ID != ids[0] {
		t.Errorf("expected newest first, got %d..%d", history[0].ID, history[2].ID)
	}

	limited, err := db.History(ctx, "x", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 crawls, got %d", len(limited))
	}

	sites, err := db.ListSites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(sites, []string{"x", "y"}) {
		t.Errorf("unexpected sites %v", sites)
	}

	if err := db.DeleteCrawl(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteCrawl failed: %v", err)
	}
	history, _ = db.History(ctx, "x", 0)
	if len(history) != 2 {
		t.Errorf("expected 2 crawls after delete, got %d", len(history))
	}
}

func TestLatestPair(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := db.SaveCrawl(ctx, buildReport(base, []string{"http://x/a"})); err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.LatestPair(ctx, "x"); !errors.Is(err, ErrCrawlNotFound) {
		t.Errorf("expected ErrCrawlNotFound with one crawl, got %v", err)
	}

	if _, err := db.SaveCrawl(ctx, buildReport(base.Add(time.Hour), []string{"http://x/b"})); err != nil {
		t.Fatal(err)
	}
	older, newer, err := db.LatestPair(ctx, "x")
	if err != nil {
		t.Fatalf("LatestPair failed: %v", err)
	}
	if older.Graph.Node("http://x/a") == nil || newer.Graph.Node("http://x/b") == nil {
		t.Error("pair returned in the wrong order")
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	older := buildReport(time.Now(), []string{"http://x/a", "http://x/b", "http://x/c"}, "http://x/b").Graph
	newer := buildReport(time.Now(), []string{"http://x/a", "http://x/c", "http://x/d"}, "http://x/c").Graph

	d := Diff(older, newer)
	if !slices.Equal(d.AddedPages, []string{"http://x/d"}) {
		t.Errorf("unexpected added %v", d.AddedPages)
	}
	if !slices.Equal(d.RemovedPages, []string{"http://x/b"}) {
		t.Errorf("unexpected removed %v", d.RemovedPages)
	}
	if !slices.Equal(d.NewlyBroken, []string{"http://x/c"}) {
		t.Errorf("unexpected newly broken %v", d.NewlyBroken)
	}
	if !slices.Equal(d.Fixed, []string{"http://x/b"}) {
		t.Errorf("unexpected fixed %v", d.Fixed)
	}
	if d.Empty() {
		t.Error("diff should not be empty")
	}
	if !Diff(older, older).Empty() {
		t.Error("diff of a graph with itself should be empty")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		zero  bool
	}{
		{"2026-03-01T12:00:00.500000000Z", false},
		{"2026-03-01T12:00:00Z", false},
		{"2026-03-01 12:00:00", false},
		{"garbage", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
			}
		})
	}
}
