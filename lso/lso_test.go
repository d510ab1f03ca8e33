package lso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Lso {
	return &Lso{
		Name: "localhost/game.swf/save",
		Body: []Element{
			{Name: "score", Value: Number(1200)},
			{Name: "player", Value: Object([]Element{
				{Name: "name", Value: String("ana")},
				{Name: "alive", Value: Bool(true)},
				{Name: "nothing", Value: Null()},
			})},
			{Name: "inventory", Value: ECMAArray([]Element{
				{Name: "2", Value: String("key")},
				{Name: "0", Value: String("sword")},
			}, 3)},
			{Name: "saved", Value: Date(1.5e12)},
			{Name: "doc", Value: XML("<a/>")},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	in := sample()
	data, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, Magic, data[:len(Magic)])

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeIsDeterministic(t *testing.T) {
	t.Parallel()
	a, err := Encode(sample())
	require.NoError(t, err)
	b, err := Encode(sample())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejectsForeignData(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte(`{"a":1}`))
	assert.ErrorIs(t, err, ErrNotLso)

	_, err = Decode(append(append([]byte(nil), Magic...), 0xff, 0x00))
	assert.Error(t, err)
}

func TestParseJSONKeepsOrderAndArrays(t *testing.T) {
	t.Parallel()
	l, err := ParseJSON("save", []byte(`{
		"z": 1,
		"a": "two",
		"list": {"__proto__": "Array", "length": 4, "0": true, "3": null, "tag": "x"},
		"nested": {"inner": false},
		"bare": [1, 2]
	}`))
	require.NoError(t, err)
	require.Len(t, l.Body, 5)

	names := make([]string, len(l.Body))
	for i, e := range l.Body {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"z", "a", "list", "nested", "bare"}, names)

	list, ok := l.Get("list")
	require.True(t, ok)
	assert.Equal(t, KindECMAArray, list.Kind)
	assert.Equal(t, uint32(4), list.Length)
	require.Len(t, list.Elements, 3)
	assert.Equal(t, "0", list.Elements[0].Name)
	assert.Equal(t, "tag", list.Elements[2].Name)

	nested, _ := l.Get("nested")
	inner, ok := nested.Get("inner")
	require.True(t, ok)
	assert.Equal(t, Bool(false), inner)

	bare, _ := l.Get("bare")
	assert.Equal(t, KindUndefined, bare.Kind)
}

func TestParseJSONRejectsNonObjects(t *testing.T) {
	t.Parallel()
	_, err := ParseJSON("x", []byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
	_, err = ParseJSON("x", []byte(`{oops`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestIsIndex(t *testing.T) {
	t.Parallel()
	i, ok := IsIndex("12")
	assert.True(t, ok)
	assert.Equal(t, 12, i)
	for _, s := range []string{"-1", "01", "x", ""} {
		_, ok := IsIndex(s)
		assert.False(t, ok, s)
	}
}
