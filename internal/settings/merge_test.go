package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) Value {
	t.Helper()
	v, err := Parse([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestMerge_NestedObjects(t *testing.T) {
	lower := mustParse(t, `{"a":{"x":1,"y":1}}`)
	higher := mustParse(t, `{"a":{"y":2}}`)

	got := Merge(lower, higher)

	assert.True(t, got.Equal(mustParse(t, `{"a":{"x":1,"y":2}}`)), got.String())
}

func TestMerge_ArraysReplace(t *testing.T) {
	lower := mustParse(t, `{"list":[1,2]}`)
	higher := mustParse(t, `{"list":[3]}`)

	got := Merge(lower, higher)

	assert.True(t, got.Equal(mustParse(t, `{"list":[3]}`)), got.String())
}

func TestMerge_NonObjectHigherWins(t *testing.T) {
	tests := []struct {
		name   string
		lower  string
		higher string
		want   string
	}{
		{"scalar over object", `{"a":{"x":1}}`, `{"a":5}`, `{"a":5}`},
		{"object over scalar", `{"a":5}`, `{"a":{"x":1}}`, `{"a":{"x":1}}`},
		{"null over value", `{"a":"on"}`, `{"a":null}`, `{"a":null}`},
		{"top level scalar", `{"a":1}`, `"flat"`, `"flat"`},
		{"disjoint keys", `{"a":1}`, `{"b":2}`, `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(mustParse(t, tt.lower), mustParse(t, tt.higher))
			assert.True(t, got.Equal(mustParse(t, tt.want)), got.String())
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	lower := mustParse(t, `{"theme":{"color":"red","font":"serif"},"tags":["a"]}`)
	higher := mustParse(t, `{"theme":{"color":"blue"},"tags":["b","c"]}`)
	lowerBefore := lower.String()
	higherBefore := higher.String()

	merged := Merge(lower, higher)
	_ = Merge(merged, mustParse(t, `{"theme":{"font":"mono"}}`))

	assert.JSONEq(t, lowerBefore, lower.String())
	assert.JSONEq(t, higherBefore, higher.String())
	assert.JSONEq(t, `{"theme":{"color":"blue","font":"serif"},"tags":["b","c"]}`, merged.String())
}

func TestMergeAll_StartsFromEmptyObject(t *testing.T) {
	assert.True(t, MergeAll().Equal(EmptyObject()))

	got := MergeAll(
		mustParse(t, `{"a":1}`),
		mustParse(t, `{"a":2,"b":{"c":true}}`),
		mustParse(t, `{"b":{"d":false}}`),
	)
	assert.JSONEq(t, `{"a":2,"b":{"c":true,"d":false}}`, got.String())
}

func TestValue_JSONRoundTrip(t *testing.T) {
	doc := `{"n":1.5,"s":"x","b":true,"z":null,"arr":[1,"two",{"three":3}],"obj":{"k":[]}}`

	v := mustParse(t, doc)
	assert.Equal(t, KindObject, v.Kind())

	data, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(data))

	arr, ok := mustField(t, v, "arr").AsArray()
	require.True(t, ok)
	assert.Len(t, arr, 3)

	n, ok := mustField(t, v, "n").AsNumber()
	require.True(t, ok)
	assert.Equal(t, 1.5, n)
}

func TestValue_AccessorsReturnCopies(t *testing.T) {
	v := Object(map[string]Value{"a": Number(1)})

	fields, ok := v.AsObject()
	require.True(t, ok)
	fields["b"] = Number(2)

	_, present := v.Field("b")
	assert.False(t, present)
	assert.Equal(t, []string{"a"}, v.Keys())
}

func TestParse_RejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"a":`))
	assert.Error(t, err)
}

func mustField(t *testing.T, v Value, key string) Value {
	t.Helper()
	f, ok := v.Field(key)
	require.True(t, ok, key)
	return f
}
