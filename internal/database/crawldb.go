package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "creepycrawler.db"

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrCrawlNotFound is returned when no stored crawl matches a lookup.
	ErrCrawlNotFound = errors.New("crawl not found")

	// ErrNoGraph is returned when saving a report without a link graph.
	ErrNoGraph = errors.New("report has no link graph")
)

// CrawlDB provides SQLite-based storage for crawl history.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl with the serialized link graph
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		root TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		graph_json BLOB NOT NULL,
		graph_digest TEXT NOT NULL,
		summary TEXT,
		pages_fetched INTEGER DEFAULT 0,
		truncated INTEGER DEFAULT 0,
		cancelled INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_site ON crawls(site);
	CREATE INDEX IF NOT EXISTS idx_crawls_timestamp ON crawls(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlMetadata describes a stored crawl without its graph.
type CrawlMetadata struct {
	// ID is the unique identifier of the crawl in the database.
	ID int64

	// Site is the host the crawl was rooted at.
	Site string

	// Root is the crawl's root URL.
	Root string

	// Timestamp is when the crawl started.
	Timestamp time.Time

	// Digest is the hex SHA3-256 of the stored graph.
	Digest string

	// Summary holds the counts of the crawl's report.
	Summary model.Summary

	PagesFetched int
	Truncated    bool
	Cancelled    bool
}

// StoredCrawl is a crawl loaded with its graph.
type StoredCrawl struct {
	CrawlMetadata

	Graph *linkgraph.Graph
}

// Digest returns the hex SHA3-256 of serialized graph bytes.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveCrawl stores the graph and summary of r and returns the new crawl ID.
func (cdb *CrawlDB) SaveCrawl(ctx context.Context, r *model.SiteReport) (int64, error) {
	if r.Graph == nil {
		return 0, ErrNoGraph
	}
	graphJSON, err := r.Graph.Serialize(linkgraph.FormatJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize graph: %w", err)
	}
	summaryJSON, err := json.Marshal(r.Summary())
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	var fetched int
	var truncated, cancelled bool
	if r.Crawl != nil {
		fetched = r.Crawl.PagesFetched
		truncated = r.Crawl.Truncated
		cancelled = r.Crawl.Cancelled
	}

	ts := r.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO crawls (site, root, timestamp, graph_json, graph_digest, summary, pages_fetched, truncated, cancelled)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := cdb.db.ExecContext(ctx, query,
		r.Site,
		r.Root,
		ts.UTC().Format(timestampLayout),
		graphJSON,
		Digest(graphJSON),
		string(summaryJSON),
		fetched,
		truncated,
		cancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read crawl id: %w", err)
	}
	return id, nil
}

const metadataColumns = `id, site, root, timestamp, graph_digest, summary, pages_fetched, truncated, cancelled`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner, extra ...any) (CrawlMetadata, error) {
	var (
		meta        CrawlMetadata
		timestamp   string
		summaryJSON sql.NullString
	)
	dest := []any{
		&meta.ID, &meta.Site, &meta.Root, &timestamp, &meta.Digest,
		&summaryJSON, &meta.PagesFetched, &meta.Truncated, &meta.Cancelled,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return meta, err
	}
	meta.Timestamp = parseTimestamp(timestamp)
	if summaryJSON.Valid && summaryJSON.String != "" {
		// A malformed summary leaves zero counts rather than hiding the crawl.
		_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary) //nolint:errcheck
	}
	return meta, nil
}

// ListSites returns every site with at least one stored crawl.
func (cdb *CrawlDB) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM crawls
	ORDER BY site
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// History returns the crawls of site, newest first. A positive limit caps
// the number returned.
func (cdb *CrawlDB) History(ctx context.Context, site string, limit int) ([]CrawlMetadata, error) {
	query := `SELECT ` + metadataColumns + `
	FROM crawls
	WHERE site = ?
	ORDER BY timestamp DESC, id DESC`
	args := []any{site}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var results []CrawlMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetCrawl loads a stored crawl with its graph.
func (cdb *CrawlDB) GetCrawl(ctx context.Context, id int64) (*StoredCrawl, error) {
	query := `SELECT ` + metadataColumns + `, graph_json
	FROM crawls
	WHERE id = ?`

	var graphJSON []byte
	meta, err := scanMetadata(cdb.db.QueryRowContext(ctx, query, id), &graphJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrCrawlNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl: %w", err)
	}

	g, err := linkgraph.Deserialize(graphJSON, linkgraph.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored graph of crawl %d: %w", id, err)
	}
	return &StoredCrawl{CrawlMetadata: meta, Graph: g}, nil
}

// LatestPair returns the two most recent crawls of site, older first, for
// comparison. ErrCrawlNotFound is returned when fewer than two exist.
func (cdb *CrawlDB) LatestPair(ctx context.Context, site string) (*StoredCrawl, *StoredCrawl, error) {
	history, err := cdb.History(ctx, site, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(history) < 2 {
		return nil, nil, fmt.Errorf("%w: %s has %d crawl(s), need 2 to compare", ErrCrawlNotFound, site, len(history))
	}
	older, err := cdb.GetCrawl(ctx, history[1].ID)
	if err != nil {
		return nil, nil, err
	}
	newer, err := cdb.GetCrawl(ctx, history[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return older, newer, nil
}

// DeleteCrawl removes a stored crawl.
func (cdb *CrawlDB) DeleteCrawl(ctx context.Context, id int64) error {
	res, err := cdb.db.ExecContext(ctx, `DELETE FROM crawls WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete crawl: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", ErrCrawlNotFound, id)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
