package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorsFor_MatchesUnexportedOrdering(t *testing.T) {
	assert.Equal(t, operatorsFor(TypeString), OperatorsFor(TypeString))
	assert.Equal(t, []Op{OpNE, OpNotLike, OpEQ, OpLike}, OperatorsFor(TypeString))
}

func TestFieldType_String(t *testing.T) {
	cases := map[FieldType]string{
		TypeInt:    "int",
		TypeFloat:  "float",
		TypeDate:   "date",
		TypeBool:   "bool",
		TypeString: "string",
		TypeUUID:   "uuid",
	}
	for typ, want := range cases {
		assert.Equal(t, want, typ.String())
	}
}
