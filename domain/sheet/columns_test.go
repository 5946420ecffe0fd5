package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildColumns(t *testing.T) {
	for _, n := range []int{0, 1, 3, 26, 27, 100, 703} {
		cols := BuildColumns(n)
		assert.Len(t, cols, n)
		for i, c := range cols {
			assert.Equal(t, i, c.Key)
			assert.Equal(t, EncodeColumn(i), c.Name)
		}
	}
}

func TestBuildColumnsNegative(t *testing.T) {
	cols := BuildColumns(-4)
	assert.NotNil(t, cols)
	assert.Empty(t, cols)
}

func TestColumnsForRange(t *testing.T) {
	cols, err := ColumnsForRange("A1:C3")
	assert.NoError(t, err)
	assert.Equal(t, []ColumnDescriptor{{"A", 0}, {"B", 1}, {"C", 2}}, cols)

	_, err = ColumnsForRange("nope")
	assert.Error(t, err)
}
