package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckImageArray(t *testing.T) {
	cases := []struct {
		name  string
		count int
		null  bool
		err   string
	}{
		{name: "negative count", count: -1, err: "negative image count -1"},
		{name: "negative count with null array", count: -3, null: true, err: "negative image count -3"},
		{name: "null array with images", count: 2, null: true, err: "null image array with count 2"},
		{name: "zero count", count: 0},
		{name: "zero count null array", count: 0, null: true},
		{name: "images", count: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkImageArray(tc.count, tc.null)
			if tc.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.err)
		})
	}
}

func TestConvertStrings(t *testing.T) {
	a, b := "a.png", "b.png"
	deref := func(p *string) string { return *p }

	assert.Nil(t, convertStrings([]*string{}, deref))
	assert.Equal(t, []string{"a.png", "", "b.png"}, convertStrings([]*string{&a, nil, &b}, deref),
		"null entries become empty paths")
}

func TestOptionalImage(t *testing.T) {
	assert.Nil(t, optionalImage(""))
	assert.Equal(t, []string{"x.jpg"}, optionalImage("x.jpg"))
}

func TestThreadValues_Replace(t *testing.T) {
	var freed []string
	tv := newThreadValues(func(s string) { freed = append(freed, s) })

	assert.Equal(t, "first", tv.set(7, kindResult, "first"))
	assert.Equal(t, "ERROR: x", tv.set(7, kindError, "ERROR: x"))
	assert.Empty(t, freed, "values of different kinds do not replace each other")

	tv.set(7, kindResult, "second")
	assert.Equal(t, []string{"first"}, freed)

	tv.set(8, kindResult, "other thread")
	assert.Equal(t, []string{"first"}, freed, "threads never free each other's values")
	assert.Equal(t, 2, tv.threads())
}

func TestThreadValues_Release(t *testing.T) {
	var freed []string
	tv := newThreadValues(func(s string) { freed = append(freed, s) })
	tv.set(7, kindResult, "r")
	tv.set(7, kindError, "e")
	tv.set(9, kindResult, "keep")

	tv.release(7)
	assert.ElementsMatch(t, []string{"r", "e"}, freed)
	require.Equal(t, 1, tv.threads())

	tv.release(7)
	assert.Len(t, freed, 2, "releasing twice frees nothing more")

	tv.set(7, kindResult, "fresh")
	assert.Len(t, freed, 2, "a recycled thread id starts empty")
}
