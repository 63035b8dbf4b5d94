package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/config"
	"github.com/alpenmark/geomarket/internal/db"
	"github.com/alpenmark/geomarket/internal/model"
)

// PostgresStore implements Store using pgxpool against a PostGIS-enabled
// database.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_municipality": `SELECT bfs_number, name, canton, latitude, longitude, geometry, population, income, income_norm, weights, created_at, updated_at FROM municipalities WHERE bfs_number = $1`,
	"top_by_segment":   `SELECT name, COALESCE((weights->>$1)::double precision, 0) AS weight FROM municipalities WHERE weights IS NOT NULL ORDER BY weight DESC, name LIMIT $2`,
	"list_sites":       `SELECT id, kind, name, type, latitude, longitude FROM sites WHERE kind = $1 ORDER BY id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS municipalities (
	bfs_number  TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	canton      TEXT,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	geometry    JSONB,
	geom        geometry(MultiPolygon, 4326),
	population  INTEGER NOT NULL DEFAULT 0,
	income      DOUBLE PRECISION,
	income_norm DOUBLE PRECISION,
	weights     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sites (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	name      TEXT,
	type      TEXT,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS competitors (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	address   TEXT,
	types     TEXT[],
	rating    DOUBLE PRECISION,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS import_jobs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	counts      JSONB,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_municipalities_name ON municipalities(name);
CREATE INDEX IF NOT EXISTS idx_municipalities_geom ON municipalities USING gist (geom);
CREATE INDEX IF NOT EXISTS idx_sites_kind ON sites(kind);
CREATE INDEX IF NOT EXISTS idx_import_jobs_started_at ON import_jobs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

var municipalityColumns = []string{
	"bfs_number", "name", "canton", "latitude", "longitude", "geometry",
	"population", "income", "income_norm", "weights", "created_at", "updated_at",
}

func (s *PostgresStore) UpsertMunicipalities(ctx context.Context, munis []model.Municipality) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(munis))

	for _, m := range munis {
		var weightsJSON []byte
		if m.Weights != nil {
			raw, err := json.Marshal(m.Weights)
			if err != nil {
				return 0, eris.Wrapf(err, "postgres: marshal weights for %s", m.BFSNumber)
			}
			weightsJSON = raw
		}
		var geometry []byte
		if len(m.Geometry) > 0 {
			geometry = m.Geometry
		}

		rows = append(rows, []any{
			m.BFSNumber, m.Name, m.Canton, m.Latitude, m.Longitude, geometry,
			m.Population, m.Income, m.IncomeNorm, weightsJSON, now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "municipalities",
		Columns:      municipalityColumns,
		ConflictKeys: []string{"bfs_number"},
		UpdateCols: []string{
			"name", "canton", "latitude", "longitude", "geometry",
			"population", "income", "income_norm", "weights", "updated_at",
		},
		// Re-upserting without geometry must not wipe an imported boundary.
		UpdateExprs: map[string]string{
			"geometry": "COALESCE(EXCLUDED.geometry, municipalities.geometry)",
		},
	}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) UpdateBoundary(ctx context.Context, bfs string, geometry json.RawMessage, ewkb []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE municipalities
		SET geometry = $1, geom = ST_GeomFromEWKB($2), updated_at = now()
		WHERE bfs_number = $3`,
		[]byte(geometry), ewkb, bfs,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update boundary %s", bfs)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("municipality not found: %s", bfs)
	}
	return nil
}

func (s *PostgresStore) GetMunicipality(ctx context.Context, bfs string) (*model.Municipality, error) {
	row := s.pool.QueryRow(ctx, "get_municipality", bfs)

	m, err := scanPgMunicipality(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get municipality %s", bfs)
	}
	return m, nil
}

func (s *PostgresStore) ListMunicipalities(ctx context.Context) ([]model.Municipality, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bfs_number, name, canton, latitude, longitude, geometry,
		       population, income, income_norm, weights, created_at, updated_at
		FROM municipalities ORDER BY bfs_number`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list municipalities")
	}
	defer rows.Close()

	var munis []model.Municipality
	for rows.Next() {
		m, err := scanPgMunicipality(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan municipality")
		}
		munis = append(munis, *m)
	}
	return munis, eris.Wrap(rows.Err(), "postgres: list municipalities iterate")
}

func (s *PostgresStore) TopBySegment(ctx context.Context, segmentKey string, n int) ([]model.RankEntry, error) {
	if err := validSegmentKey(segmentKey); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}

	rows, err := s.pool.Query(ctx, "top_by_segment", segmentKey, n)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: top by segment %s", segmentKey)
	}
	defer rows.Close()

	var entries []model.RankEntry
	for rows.Next() {
		var e model.RankEntry
		if err := rows.Scan(&e.Name, &e.Weight); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rank entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: top by segment iterate")
}

func (s *PostgresStore) ReplaceSites(ctx context.Context, kind string, sites []model.PointSite) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: begin replace %s sites", kind)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM sites WHERE kind = $1`, kind); err != nil {
		return 0, eris.Wrapf(err, "postgres: delete %s sites", kind)
	}

	rows := make([][]any, 0, len(sites))
	for _, site := range sites {
		rows = append(rows, []any{site.ID, kind, site.Name, site.Type, site.Latitude, site.Longitude})
	}

	n, err := db.CopyFrom(ctx, tx, "sites",
		[]string{"id", "kind", "name", "type", "latitude", "longitude"}, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit replace %s sites", kind)
	}
	return int(n), nil
}

func (s *PostgresStore) ListSites(ctx context.Context, kind string) ([]model.PointSite, error) {
	rows, err := s.pool.Query(ctx, "list_sites", kind)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s sites", kind)
	}
	defer rows.Close()

	var sites []model.PointSite
	for rows.Next() {
		var site model.PointSite
		var name, typ *string
		if err := rows.Scan(&site.ID, &site.Kind, &name, &typ, &site.Latitude, &site.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		if name != nil {
			site.Name = *name
		}
		if typ != nil {
			site.Type = *typ
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: list sites iterate")
}

func (s *PostgresStore) ReplaceCompetitors(ctx context.Context, competitors []model.Competitor) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace competitors")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM competitors`); err != nil {
		return 0, eris.Wrap(err, "postgres: delete competitors")
	}

	rows := make([][]any, 0, len(competitors))
	for _, c := range competitors {
		rows = append(rows, []any{c.ID, c.Name, c.Address, c.Types, c.Rating, c.Latitude, c.Longitude})
	}

	n, err := db.CopyFrom(ctx, tx, "competitors",
		[]string{"id", "name", "address", "types", "rating", "latitude", "longitude"}, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace competitors")
	}
	return int(n), nil
}

func (s *PostgresStore) ListCompetitors(ctx context.Context) ([]model.Competitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, types, rating, latitude, longitude FROM competitors ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitors")
	}
	defer rows.Close()

	var competitors []model.Competitor
	for rows.Next() {
		var c model.Competitor
		var address *string
		if err := rows.Scan(&c.ID, &c.Name, &address, &c.Types, &c.Rating, &c.Latitude, &c.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		if address != nil {
			c.Address = *address
		}
		competitors = append(competitors, c)
	}
	return competitors, eris.Wrap(rows.Err(), "postgres: list competitors iterate")
}

func (s *PostgresStore) CreateImportJob(ctx context.Context) (*model.ImportJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_jobs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.ImportStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import job")
	}

	return &model.ImportJob{
		ID:        id,
		Status:    model.ImportStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteImportJob(ctx context.Context, id string, status model.ImportStatus, counts map[string]int, errMsg string) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal import counts")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_jobs SET status = $1, counts = $2, error = $3, finished_at = now() WHERE id = $4`,
		string(status), countsJSON, errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete import job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("import job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) LatestImportJob(ctx context.Context) (*model.ImportJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, counts, error, started_at, finished_at
		FROM import_jobs ORDER BY started_at DESC LIMIT 1`)

	var job model.ImportJob
	var counts []byte
	var errMsg *string
	var finishedAt *time.Time
	err := row.Scan(&job.ID, &job.Status, &counts, &errMsg, &job.StartedAt, &finishedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest import job")
	}

	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &job.Counts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal import counts")
		}
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	job.FinishedAt = finishedAt
	return &job, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	for name, query := range map[string]string{
		"municipalities": `SELECT COUNT(*) FROM municipalities`,
		"boundaries":     `SELECT COUNT(*) FROM municipalities WHERE geometry IS NOT NULL`,
		"hotspots":       `SELECT COUNT(*) FROM sites WHERE kind = 'hotspot'`,
		"advertising":    `SELECT COUNT(*) FROM sites WHERE kind = 'advertising'`,
		"competitors":    `SELECT COUNT(*) FROM competitors`,
	} {
		var n int
		if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "postgres: count %s", name)
		}
		counts[name] = n
	}
	return counts, nil
}

func scanPgMunicipality(row pgx.Row) (*model.Municipality, error) {
	var m model.Municipality
	var canton *string
	var geometry, weights []byte

	err := row.Scan(
		&m.BFSNumber, &m.Name, &canton, &m.Latitude, &m.Longitude, &geometry,
		&m.Population, &m.Income, &m.IncomeNorm, &weights, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if canton != nil {
		m.Canton = *canton
	}
	if len(geometry) > 0 {
		m.Geometry = json.RawMessage(geometry)
	}
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &m.Weights); err != nil {
			return nil, eris.Wrapf(err, "unmarshal weights for %s", m.BFSNumber)
		}
	}
	return &m, nil
}
