package internship

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStipend_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Stipend
		out  string
	}{
		{"number", `15000`, Amount(15000), `15000`},
		{"unpaid marker", `"Unpaid"`, Unpaid(), `"Unpaid"`},
		{"unpaid lower case", `"unpaid"`, Unpaid(), `"Unpaid"`},
		{"numeric string", `"12,500"`, Amount(12500), `12500`},
		{"null", `null`, Stipend{}, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Stipend
			require.NoError(t, json.Unmarshal([]byte(tt.in), &s))
			assert.Equal(t, tt.want, s)

			out, err := json.Marshal(s)
			require.NoError(t, err)
			assert.JSONEq(t, tt.out, string(out))
		})
	}
}

func TestStipend_Invalid(t *testing.T) {
	for _, in := range []string{`"lots"`, `-5`, `true`} {
		var s Stipend
		assert.Error(t, json.Unmarshal([]byte(in), &s), in)
	}
}

func TestStipend_SQL(t *testing.T) {
	v, err := Unpaid().Value()
	require.NoError(t, err)
	assert.Equal(t, "Unpaid", v)

	v, err = Stipend{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var s Stipend
	require.NoError(t, s.Scan([]byte("8000")))
	assert.Equal(t, Amount(8000), s)
	require.NoError(t, s.Scan(nil))
	assert.True(t, s.IsZero())
	assert.Error(t, s.Scan(true))
}
