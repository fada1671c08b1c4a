package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/ports"
)

// SQL-backed implementation of the InstanceRepository port.
type SQLInstanceRepository struct{ DB *sqlx.DB }

func NewSQLInstanceRepository(db *sqlx.DB) *SQLInstanceRepository {
	return &SQLInstanceRepository{DB: db}
}

type instanceRow struct {
	InstanceID int    `db:"instance_id"`
	Name       string `db:"name"`
	StopsJSON  string `db:"stops_json"`
}

func (r instanceRow) toDomain() (*domain.Instance, error) {
	var stops []pointJSON
	if err := json.Unmarshal([]byte(r.StopsJSON), &stops); err != nil {
		return nil, fmt.Errorf("decode stops for instance %d: %w", r.InstanceID, err)
	}
	return &domain.Instance{InstanceID: r.InstanceID, Name: r.Name, Stops: toStopSet(stops)}, nil
}

// Return all instances ordered by id.
func (s *SQLInstanceRepository) ListInstances(ctx context.Context) ([]*domain.Instance, error) {
	if s.DB == nil {
		return nil, errors.New("sql instance repository: DB is nil")
	}

	var rows []instanceRow
	query := `
	SELECT instance_id, name, stops_json
	FROM instances
	ORDER BY instance_id;
	`
	if err := s.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list instances: query instances table: %w", err)
	}

	out := make([]*domain.Instance, 0, len(rows))
	for _, row := range rows {
		inst, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
		out = append(out, inst)
	}

	return out, nil
}

func (s *SQLInstanceRepository) GetInstance(ctx context.Context, instanceID int) (*domain.Instance, error) {
	if s.DB == nil {
		return nil, errors.New("sql instance repository: DB is nil")
	}

	var row instanceRow
	query := s.DB.Rebind(`
	SELECT instance_id, name, stops_json
	FROM instances
	WHERE instance_id = ?;
	`)
	if err := s.DB.GetContext(ctx, &row, query, instanceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get instance %d: %w", instanceID, ports.ErrInstanceNotFound)
		}
		return nil, fmt.Errorf("get instance %d: %w", instanceID, err)
	}

	inst, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return inst, nil
}
