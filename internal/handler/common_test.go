package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexToRowLabel(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "B",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}
	for idx, want := range cases {
		assert.Equal(t, want, indexToRowLabel(idx), "index %d", idx)
	}
	assert.Equal(t, "", indexToRowLabel(-1))
}

func TestRowLabelToIndex(t *testing.T) {
	for i := 0; i < 1000; i++ {
		label := indexToRowLabel(i)
		got, ok := rowLabelToIndex(label)
		assert.True(t, ok, "label %q", label)
		assert.Equal(t, i, got, "label %q", label)
	}

	got, ok := rowLabelToIndex("  aa ")
	assert.True(t, ok)
	assert.Equal(t, 26, got)

	for _, bad := range []string{"", "A1", "-", "É"} {
		_, ok := rowLabelToIndex(bad)
		assert.False(t, ok, "label %q", bad)
	}
}

func TestParseUintParam(t *testing.T) {
	id, err := parseUintParam("42")
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseUintParam(bad)
		assert.Error(t, err, "value %q", bad)
	}
}
