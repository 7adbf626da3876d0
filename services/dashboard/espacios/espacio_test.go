package espacios

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEspacio(id int) Espacio {
	return Espacio{
		ID: id, Nombre: "Aula 101", Estado: "BUENO", Clasificacion: "AULA", Uso: "DOCENCIA",
		Tipo: "INTERIOR", Piso: "1", Capacidad: 40, MedicionMt2: 62.5,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validEspacio(1).Validate())
}

func TestValidate_ReportsEachField(t *testing.T) {
	e := validEspacio(1)
	e.Nombre = "  "
	e.Piso = ""
	e.Capacidad = 0
	e.MedicionMt2 = -3

	err := e.Validate()
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 4)
	assert.Contains(t, fe, "nombre")
	assert.Contains(t, fe, "piso")
	assert.Contains(t, fe, "capacidad")
	assert.Contains(t, fe, "medicionmt2")
	assert.Equal(t, "espacios: invalid capacidad: debe ser mayor que cero; medicionmt2: debe ser mayor que cero; nombre: es obligatorio; piso: debe seleccionar un valor", err.Error())
}

func TestCache_ReflectsConfirmedWrites(t *testing.T) {
	c := NewCache(12)
	assert.Equal(t, 12, c.EdificioID())
	assert.Empty(t, c.List())

	c.Replace([]Espacio{validEspacio(1), validEspacio(2), validEspacio(3)})
	assert.Len(t, c.List(), 3)

	updated := validEspacio(2)
	updated.Nombre = "Sala de juntas"
	c.Upsert(updated)
	got, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Sala de juntas", got.Nombre)
	assert.Equal(t, 2, c.List()[1].ID)

	c.Upsert(validEspacio(9))
	assert.Equal(t, 9, c.List()[3].ID)

	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	_, ok = c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, []int{2, 3, 9}, ids(c.List()))
}

func TestCache_ListIsACopy(t *testing.T) {
	c := NewCache(1)
	c.Replace([]Espacio{validEspacio(1)})
	list := c.List()
	list[0].Nombre = "changed"

	got, _ := c.Get(1)
	assert.Equal(t, "Aula 101", got.Nombre)
}

func ids(list []Espacio) []int {
	out := make([]int, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}
