package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGGraph reads the reports-to relation from PostgreSQL.
type PGGraph struct {
	pool *pgxpool.Pool
}

// NewPGGraph constructs a PostgreSQL backed graph.
func NewPGGraph(pool *pgxpool.Pool) *PGGraph {
	return &PGGraph{pool: pool}
}

// DirectReports returns users reporting to any of the given managers.
func (g *PGGraph) DirectReports(ctx context.Context, managerIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := g.pool.Query(ctx, `SELECT id FROM users WHERE reports_to = ANY($1)`, managerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Graph = (*PGGraph)(nil)
