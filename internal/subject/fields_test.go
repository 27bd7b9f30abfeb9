package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedFields_Literals(t *testing.T) {
	f := ExpectedFields()
	assert.Equal(t, int8(2), f.Byte)
	assert.Equal(t, int16(3), f.Short)
	assert.Equal(t, int32(4), f.Int)
	assert.Equal(t, int64(5), f.Long)
	assert.Equal(t, float32(6.2), f.Float)
	assert.Equal(t, 7.35, f.Double)
	assert.Equal(t, 'b', f.Char)
	assert.True(t, f.Boolean)
	assert.Equal(t, "sttc glbl fld", f.String)
}

func TestFields_Values(t *testing.T) {
	v := ExpectedFields().Values()
	assert.Equal(t, "2", v["byteField"])
	assert.Equal(t, "6.2", v["floatField"])
	assert.Equal(t, "7.35", v["doubleField"])
	assert.Equal(t, "'b'", v["charField"])
	assert.Equal(t, "true", v["booleanField"])
	assert.Equal(t, `"sttc glbl fld"`, v["stringField"])
	assert.Len(t, v, len(FieldNames))
}

func TestFields_CompareEqual(t *testing.T) {
	assert.Empty(t, ExpectedFields().Compare(ExpectedFields()))
}

func TestFields_CompareReportsEveryMismatch(t *testing.T) {
	mismatches := InitialFields().Compare(ExpectedFields())
	require.Len(t, mismatches, len(FieldNames))

	for i, m := range mismatches {
		assert.Equal(t, FieldNames[i], m.Name)
	}
	assert.Equal(t, Mismatch{Name: "byteField", Actual: "1", Expected: "2"}, mismatches[0])
	assert.Equal(t, `stringField="static global field"	expected: "sttc glbl fld"`, mismatches[8].String())
}

func TestFields_ComparePartial(t *testing.T) {
	f := ExpectedFields()
	f.Float = 6.25
	f.Char = 'c'

	mismatches := f.Compare(ExpectedFields())
	require.Len(t, mismatches, 2)
	assert.Equal(t, "floatField", mismatches[0].Name)
	assert.Equal(t, "6.25", mismatches[0].Actual)
	assert.Equal(t, "charField", mismatches[1].Name)
	assert.Equal(t, "'c'", mismatches[1].Actual)
}
