package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/alpenmark/geomarket/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS municipalities (
	bfs_number  TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	canton      TEXT,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	geometry    TEXT,
	population  INTEGER NOT NULL DEFAULT 0,
	income      REAL,
	income_norm REAL,
	weights     TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sites (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	name      TEXT,
	type      TEXT,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS competitors (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	address   TEXT,
	types     TEXT,
	rating    REAL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS import_jobs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	counts      TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_municipalities_name ON municipalities(name);
CREATE INDEX IF NOT EXISTS idx_sites_kind ON sites(kind);
CREATE INDEX IF NOT EXISTS idx_import_jobs_started_at ON import_jobs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertMunicipalities(ctx context.Context, munis []model.Municipality) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO municipalities
			(bfs_number, name, canton, latitude, longitude, geometry, population, income, income_norm, weights, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bfs_number) DO UPDATE SET
			name = excluded.name,
			canton = excluded.canton,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			geometry = COALESCE(excluded.geometry, geometry),
			population = excluded.population,
			income = excluded.income,
			income_norm = excluded.income_norm,
			weights = excluded.weights,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, m := range munis {
		var weightsJSON *string
		if m.Weights != nil {
			raw, err := json.Marshal(m.Weights)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: marshal weights for %s", m.BFSNumber)
			}
			ws := string(raw)
			weightsJSON = &ws
		}
		var geometry *string
		if len(m.Geometry) > 0 {
			gs := string(m.Geometry)
			geometry = &gs
		}

		_, err = stmt.ExecContext(ctx,
			m.BFSNumber, m.Name, m.Canton, m.Latitude, m.Longitude,
			geometry, m.Population, m.Income, m.IncomeNorm, weightsJSON, now, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert municipality %s", m.BFSNumber)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(munis), nil
}

func (s *SQLiteStore) UpdateBoundary(ctx context.Context, bfs string, geometry json.RawMessage, _ []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE municipalities SET geometry = ?, updated_at = ? WHERE bfs_number = ?`,
		string(geometry), time.Now().UTC(), bfs,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update boundary %s", bfs)
	}
	return checkRowsAffected(res, "municipality", bfs)
}

func (s *SQLiteStore) GetMunicipality(ctx context.Context, bfs string) (*model.Municipality, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT bfs_number, name, canton, latitude, longitude, geometry,
		       population, income, income_norm, weights, created_at, updated_at
		FROM municipalities WHERE bfs_number = ?`, bfs)

	m, err := scanMunicipality(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get municipality %s", bfs)
	}
	return m, nil
}

func (s *SQLiteStore) ListMunicipalities(ctx context.Context) ([]model.Municipality, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bfs_number, name, canton, latitude, longitude, geometry,
		       population, income, income_norm, weights, created_at, updated_at
		FROM municipalities ORDER BY bfs_number`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list municipalities")
	}
	defer rows.Close() //nolint:errcheck

	var munis []model.Municipality
	for rows.Next() {
		m, err := scanMunicipality(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan municipality")
		}
		munis = append(munis, *m)
	}
	return munis, eris.Wrap(rows.Err(), "sqlite: list municipalities iterate")
}

func (s *SQLiteStore) TopBySegment(ctx context.Context, segmentKey string, n int) ([]model.RankEntry, error) {
	if err := validSegmentKey(segmentKey); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}

	// The json_extract path cannot be a bound parameter; the key is
	// allowlist-checked above.
	query := fmt.Sprintf(`
		SELECT name, CAST(json_extract(weights, '$.%s') AS REAL) AS weight
		FROM municipalities
		WHERE weights IS NOT NULL
		ORDER BY weight DESC, name
		LIMIT ?`, segmentKey)

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: top by segment %s", segmentKey)
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.RankEntry
	for rows.Next() {
		var e model.RankEntry
		if err := rows.Scan(&e.Name, &e.Weight); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rank entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: top by segment iterate")
}

func (s *SQLiteStore) ReplaceSites(ctx context.Context, kind string, sites []model.PointSite) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace sites")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE kind = ?`, kind); err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete %s sites", kind)
	}

	for _, site := range sites {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sites (id, kind, name, type, latitude, longitude) VALUES (?, ?, ?, ?, ?, ?)`,
			site.ID, kind, site.Name, site.Type, site.Latitude, site.Longitude,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert site %s", site.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace sites")
	}
	return len(sites), nil
}

func (s *SQLiteStore) ListSites(ctx context.Context, kind string) ([]model.PointSite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, type, latitude, longitude FROM sites WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s sites", kind)
	}
	defer rows.Close() //nolint:errcheck

	var sites []model.PointSite
	for rows.Next() {
		var site model.PointSite
		var name, typ sql.NullString
		if err := rows.Scan(&site.ID, &site.Kind, &name, &typ, &site.Latitude, &site.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site")
		}
		site.Name = name.String
		site.Type = typ.String
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "sqlite: list sites iterate")
}

func (s *SQLiteStore) ReplaceCompetitors(ctx context.Context, competitors []model.Competitor) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace competitors")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM competitors`); err != nil {
		return 0, eris.Wrap(err, "sqlite: delete competitors")
	}

	for _, c := range competitors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO competitors (id, name, address, types, rating, latitude, longitude) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Address, strings.Join(c.Types, ","), c.Rating, c.Latitude, c.Longitude,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert competitor %s", c.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace competitors")
	}
	return len(competitors), nil
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, types, rating, latitude, longitude FROM competitors ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitors")
	}
	defer rows.Close() //nolint:errcheck

	var competitors []model.Competitor
	for rows.Next() {
		var c model.Competitor
		var address, types sql.NullString
		var rating sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Name, &address, &types, &rating, &c.Latitude, &c.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		c.Address = address.String
		if types.String != "" {
			c.Types = strings.Split(types.String, ",")
		}
		if rating.Valid {
			c.Rating = &rating.Float64
		}
		competitors = append(competitors, c)
	}
	return competitors, eris.Wrap(rows.Err(), "sqlite: list competitors iterate")
}

func (s *SQLiteStore) CreateImportJob(ctx context.Context) (*model.ImportJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_jobs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.ImportStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import job")
	}

	return &model.ImportJob{
		ID:        id,
		Status:    model.ImportStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteImportJob(ctx context.Context, id string, status model.ImportStatus, counts map[string]int, errMsg string) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal import counts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_jobs SET status = ?, counts = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), string(countsJSON), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete import job %s", id)
	}
	return checkRowsAffected(res, "import job", id)
}

func (s *SQLiteStore) LatestImportJob(ctx context.Context) (*model.ImportJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, counts, error, started_at, finished_at
		FROM import_jobs ORDER BY started_at DESC LIMIT 1`)

	var job model.ImportJob
	var counts, errMsg sql.NullString
	var finishedAt sql.NullTime
	err := row.Scan(&job.ID, &job.Status, &counts, &errMsg, &job.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest import job")
	}

	if counts.Valid && counts.String != "" {
		if err := json.Unmarshal([]byte(counts.String), &job.Counts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal import counts")
		}
	}
	job.Error = errMsg.String
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return &job, nil
}

func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	for name, query := range map[string]string{
		"municipalities": `SELECT COUNT(*) FROM municipalities`,
		"boundaries":     `SELECT COUNT(*) FROM municipalities WHERE geometry IS NOT NULL`,
		"hotspots":       `SELECT COUNT(*) FROM sites WHERE kind = 'hotspot'`,
		"advertising":    `SELECT COUNT(*) FROM sites WHERE kind = 'advertising'`,
		"competitors":    `SELECT COUNT(*) FROM competitors`,
	} {
		var n int
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "sqlite: count %s", name)
		}
		counts[name] = n
	}
	return counts, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMunicipality(row scannable) (*model.Municipality, error) {
	var m model.Municipality
	var canton, geometry, weights sql.NullString
	var income, incomeNorm sql.NullFloat64

	err := row.Scan(
		&m.BFSNumber, &m.Name, &canton, &m.Latitude, &m.Longitude, &geometry,
		&m.Population, &income, &incomeNorm, &weights, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Canton = canton.String
	if geometry.Valid && geometry.String != "" {
		m.Geometry = json.RawMessage(geometry.String)
	}
	if income.Valid {
		m.Income = &income.Float64
	}
	if incomeNorm.Valid {
		m.IncomeNorm = &incomeNorm.Float64
	}
	if weights.Valid && weights.String != "" {
		if err := json.Unmarshal([]byte(weights.String), &m.Weights); err != nil {
			return nil, eris.Wrapf(err, "unmarshal weights for %s", m.BFSNumber)
		}
	}
	return &m, nil
}
