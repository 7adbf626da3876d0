package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var groupedColumns = []string{
	"categoria", "propiedad", "cert_uso_suelo",
	"suma_area_terreno", "suma_area_construida", "promedio_area_terreno", "promedio_area_construida",
	"total_edificios", "ids_edificios", "nombres_sedes_edificios",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewWithPool(mock), mock
}

func TestGroupedMetrics(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows(groupedColumns).
		AddRow("ACADÉMICO", "PROPIO", true, 1200.0, 900.0, 600.0, 450.0, int64(2), []int{1, 2}, []string{"Meléndez - 101", "Meléndez - 102"}).
		AddRow("DEPORTIVO", "ARRENDADO", false, 300.0, 10.0, 300.0, 10.0, int64(1), []int{8}, []string{"San Fernando - 8"})

	mock.ExpectQuery(`FROM edificios e\s+JOIN sedes s`).
		WithArgs([]int{1, 2}).
		WillReturnRows(rows)

	records, err := s.GroupedMetrics(context.Background(), "ignored", []int{1, 2})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ACADÉMICO", records[0].Categoria)
	assert.True(t, records[0].CertUsoSuelo)
	assert.Equal(t, 2, records[0].TotalEdificios)
	assert.Equal(t, []int{1, 2}, records[0].IDsEdificios)
	assert.Equal(t, []string{"San Fernando - 8"}, records[1].NombresSedesEdificios)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupedMetrics_NoSedesSkipsQuery(t *testing.T) {
	s, mock := newMockStore(t)

	records, err := s.GroupedMetrics(context.Background(), "", nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupedMetrics_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM edificios`).
		WithArgs([]int{5}).
		WillReturnError(errors.New("relation \"edificios\" does not exist"))

	_, err := s.GroupedMetrics(context.Background(), "", []int{5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: query grouped metrics")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupedMetrics_RejectsMisalignedArrays(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows(groupedColumns).
		AddRow("ACADÉMICO", "PROPIO", true, 1.0, 1.0, 1.0, 1.0, int64(2), []int{1, 2}, []string{"solo uno"})
	mock.ExpectQuery(`FROM edificios`).WithArgs([]int{1}).WillReturnRows(rows)

	_, err := s.GroupedMetrics(context.Background(), "", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 ids but 1 names")
}

func TestPing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}
