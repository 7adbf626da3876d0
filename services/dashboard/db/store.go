package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Store wraps database access helpers.
type Store struct {
	pool Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "db: create pool")
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "db: ping")
	}
	return nil
}

const groupedMetricsSQL = `
    SELECT e.categoria,
           e.propiedad,
           e.cert_uso_suelo,
           COALESCE(SUM(e.area_terreno), 0)    AS suma_area_terreno,
           COALESCE(SUM(e.area_construida), 0) AS suma_area_construida,
           COALESCE(AVG(e.area_terreno), 0)    AS promedio_area_terreno,
           COALESCE(AVG(e.area_construida), 0) AS promedio_area_construida,
           COUNT(*)                            AS total_edificios,
           ARRAY_AGG(e.id_edificio ORDER BY e.id_edificio)                   AS ids_edificios,
           ARRAY_AGG(s.nombre || ' - ' || e.nombre ORDER BY e.id_edificio) AS nombres_sedes_edificios
    FROM edificios e
    JOIN sedes s ON s.id_sede = e.id_sede
    WHERE e.id_sede = ANY($1)
    GROUP BY e.categoria, e.propiedad, e.cert_uso_suelo
    ORDER BY e.categoria, e.propiedad, e.cert_uso_suelo
`

// GroupedMetrics aggregates buildings of the given sedes by category,
// ownership and certificate, in the same shape the backend endpoint serves.
// The token is accepted to satisfy the same source interface as the HTTP
// client and is not used.
func (s *Store) GroupedMetrics(ctx context.Context, _ string, idsSedes []int) ([]metrics.MetricRecord, error) {
	records := make([]metrics.MetricRecord, 0)
	if len(idsSedes) == 0 {
		return records, nil
	}

	rows, err := s.pool.Query(ctx, groupedMetricsSQL, idsSedes)
	if err != nil {
		return nil, eris.Wrap(err, "db: query grouped metrics")
	}
	defer rows.Close()

	for rows.Next() {
		var rec metrics.MetricRecord
		var total int64
		if err := rows.Scan(
			&rec.Categoria,
			&rec.Propiedad,
			&rec.CertUsoSuelo,
			&rec.SumaAreaTerreno,
			&rec.SumaAreaConstruida,
			&rec.PromedioAreaTerreno,
			&rec.PromedioAreaConstruida,
			&total,
			&rec.IDsEdificios,
			&rec.NombresSedesEdificios,
		); err != nil {
			return nil, eris.Wrap(err, "db: scan grouped metrics")
		}
		rec.TotalEdificios = int(total)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "db: iterate grouped metrics")
	}
	if err := metrics.ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}
