package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedSeq2(t *testing.T) {
	assert := assert.New(t)

	var keys []string
	var values []int
	for k, v := range SortedSeq2(map[string]int{"c": 3, "a": 1, "b": 2}) {
		keys = append(keys, k)
		values = append(values, v)
	}
	assert.Equal([]string{"a", "b", "c"}, keys)
	assert.Equal([]int{1, 2, 3}, values)
}

func TestSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	seq := Seq2Concat(
		SortedSeq2(map[string]int{"y": 2, "x": 1}),
		SortedSeq2(map[string]int{"z": 3}),
	)

	var keys []string
	for k := range seq {
		keys = append(keys, k)
	}
	assert.Equal([]string{"x", "y", "z"}, keys)

	// Early stop.
	keys = nil
	for k := range seq {
		keys = append(keys, k)
		if k == "y" {
			break
		}
	}
	assert.Equal([]string{"x", "y"}, keys)
}
