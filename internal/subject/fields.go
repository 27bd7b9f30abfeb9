package subject

import (
	"fmt"
	"strconv"
)

// Fields is the state the instrumented method mutates outside its own
// frame. It is owned by the Subject's goroutine and handed out by value
// from Join.
type Fields struct {
	Byte    int8
	Short   int16
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	Char    rune
	Boolean bool
	String  string
}

// InitialFields returns the values the field set holds before the run.
func InitialFields() Fields {
	return Fields{
		Byte:    1,
		Short:   2,
		Int:     3,
		Long:    4,
		Float:   5.1,
		Double:  6.2,
		Char:    'a',
		Boolean: false,
		String:  "static global field",
	}
}

// ExpectedFields returns the values one complete execution of the
// instrumented method leaves behind.
func ExpectedFields() Fields {
	return Fields{
		Byte:    2,
		Short:   3,
		Int:     4,
		Long:    5,
		Float:   6.2,
		Double:  7.35,
		Char:    'b',
		Boolean: true,
		String:  "sttc glbl fld",
	}
}

// FieldNames lists the fields in report order.
var FieldNames = []string{
	"byteField",
	"shortField",
	"intField",
	"longField",
	"floatField",
	"doubleField",
	"charField",
	"booleanField",
	"stringField",
}

// Values returns the literal form of every field keyed by name.
func (f Fields) Values() map[string]string {
	return map[string]string{
		"byteField":    strconv.FormatInt(int64(f.Byte), 10),
		"shortField":   strconv.FormatInt(int64(f.Short), 10),
		"intField":     strconv.FormatInt(int64(f.Int), 10),
		"longField":    strconv.FormatInt(f.Long, 10),
		"floatField":   strconv.FormatFloat(float64(f.Float), 'g', -1, 32),
		"doubleField":  strconv.FormatFloat(f.Double, 'g', -1, 64),
		"charField":    strconv.QuoteRune(f.Char),
		"booleanField": strconv.FormatBool(f.Boolean),
		"stringField":  strconv.Quote(f.String),
	}
}

// Mismatch is one field whose value differs from the expected literal.
type Mismatch struct {
	Name     string
	Actual   string
	Expected string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s=%s\texpected: %s", m.Name, m.Actual, m.Expected)
}

// Compare returns every field of f that differs from want, in report
// order. It never stops at the first difference.
func (f Fields) Compare(want Fields) []Mismatch {
	got := f.Values()
	exp := want.Values()
	var out []Mismatch
	for _, name := range FieldNames {
		if got[name] != exp[name] {
			out = append(out, Mismatch{Name: name, Actual: got[name], Expected: exp[name]})
		}
	}
	return out
}
