package persistence

import (
	"context"
	"database/sql"
	"time"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
)

// PostgresLaneStore persists lanes in a single table, one row per account.
type PostgresLaneStore struct{ db *sql.DB }

func NewPostgresLaneStore(db *sql.DB) *PostgresLaneStore { return &PostgresLaneStore{db: db} }

var _ repository.ILaneStore = (*PostgresLaneStore)(nil)

const laneColumns = `name, cookies, session_token, bearer_token, proxy, default_project_id, default_scene_id, last_refreshed_at`

func (r *PostgresLaneStore) ListAll(ctx context.Context) ([]model.Lane, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+laneColumns+` FROM lanes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lanes []model.Lane
	for rows.Next() {
		lane, err := scanLane(rows)
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, *lane)
	}
	return lanes, rows.Err()
}

func (r *PostgresLaneStore) FindByName(ctx context.Context, name string) (*model.Lane, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+laneColumns+` FROM lanes WHERE name=$1`, name)
	lane, err := scanLane(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lane, nil
}

func (r *PostgresLaneStore) Save(ctx context.Context, lane *model.Lane) error {
	if lane.LastRefreshedAt.IsZero() {
		lane.LastRefreshedAt = time.Now().UTC()
	}
	q := `INSERT INTO lanes (` + laneColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		  ON CONFLICT (name) DO UPDATE SET
			cookies=EXCLUDED.cookies,
			session_token=EXCLUDED.session_token,
			bearer_token=EXCLUDED.bearer_token,
			proxy=EXCLUDED.proxy,
			default_project_id=EXCLUDED.default_project_id,
			default_scene_id=EXCLUDED.default_scene_id,
			last_refreshed_at=EXCLUDED.last_refreshed_at`
	_, err := r.db.ExecContext(ctx, q,
		lane.Name, lane.Cookies, lane.SessionToken, lane.BearerToken,
		lane.Proxy, lane.DefaultProjectID, lane.DefaultSceneID, lane.LastRefreshedAt)
	return err
}

func (r *PostgresLaneStore) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lanes WHERE name=$1`, name)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLane(row rowScanner) (*model.Lane, error) {
	lane := &model.Lane{}
	var bearer, proxy, projectID, sceneID sql.NullString
	if err := row.Scan(&lane.Name, &lane.Cookies, &lane.SessionToken, &bearer, &proxy, &projectID, &sceneID, &lane.LastRefreshedAt); err != nil {
		return nil, err
	}
	if bearer.Valid {
		lane.BearerToken = bearer.String
	}
	if proxy.Valid {
		lane.Proxy = proxy.String
	}
	if projectID.Valid {
		lane.DefaultProjectID = projectID.String
	}
	if sceneID.Valid {
		lane.DefaultSceneID = sceneID.String
	}
	return lane, nil
}

// EnsureLaneSchema creates the lanes table when missing. Safe at startup.
func EnsureLaneSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS lanes (
		name TEXT PRIMARY KEY,
		cookies TEXT NOT NULL,
		session_token TEXT NOT NULL,
		bearer_token TEXT,
		proxy TEXT,
		default_project_id TEXT,
		default_scene_id TEXT,
		last_refreshed_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}
