package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/models"
)

func indexOf(order []models.Table, table models.Table) int {
	for i, t := range order {
		if t == table {
			return i
		}
	}
	return -1
}

func TestTableGraph_Order(t *testing.T) {
	g, err := newTableGraph(models.TableDependencies)
	require.NoError(t, err)

	order := g.Order()
	require.Len(t, order, len(models.AllTables))

	// every parent appears before its dependents
	for table, parents := range models.TableDependencies {
		for _, parent := range parents {
			assert.Less(t, indexOf(order, parent), indexOf(order, table),
				"%s must come after %s", table, parent)
		}
	}
}

func TestTableGraph_OrderIsDeterministic(t *testing.T) {
	first, err := newTableGraph(models.TableDependencies)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		g, buildErr := newTableGraph(models.TableDependencies)
		require.NoError(t, buildErr)
		assert.Equal(t, first.Order(), g.Order())
	}
}

func TestTableGraph_CycleDetection(t *testing.T) {
	deps := map[models.Table][]models.Table{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	_, err := newTableGraph(deps)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestTableGraph_UndeclaredParent(t *testing.T) {
	deps := map[models.Table][]models.Table{
		"a": {"ghost"},
	}

	_, err := newTableGraph(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared")
}

func TestTableGraph_SelfCycle(t *testing.T) {
	deps := map[models.Table][]models.Table{
		"a": {"a"},
	}

	_, err := newTableGraph(deps)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyCycle)
}
