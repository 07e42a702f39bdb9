package pipeline

import (
	"reflect"
	"testing"
)

func TestPopFront(t *testing.T) {
	cases := []struct {
		name string
		in   []float32
		n    int
		want []float32
	}{
		{"erase some", []float32{1, 2, 3, 4, 5}, 2, []float32{3, 4, 5}},
		{"erase all", []float32{1, 2, 3}, 3, []float32{}},
		{"erase more than len", []float32{1, 2}, 5, []float32{}},
		{"erase zero", []float32{1, 2}, 0, []float32{1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := popFront(append([]float32{}, c.in...), c.n)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("popFront(%v, %d) = %v, want %v", c.in, c.n, got, c.want)
			}
		})
	}
}
