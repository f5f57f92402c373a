package vectorstore

import (
	"errors"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{input: "range", want: StrategyRange},
		{input: "Range", want: StrategyRange},
		{input: "vectorrange", want: StrategyRange},
		{input: "nearest", want: StrategyNearestNeighbors},
		{input: "knn", want: StrategyNearestNeighbors},
		{input: "NearestNeighbors", want: StrategyNearestNeighbors},
		{input: "nearest-neighbors", want: StrategyNearestNeighbors},
		{input: "", wantErr: true},
		{input: "cosine", wantErr: true},
		{input: "rangee", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStrategy) {
					t.Errorf("ParseStrategy(%q) error = %v, want ErrInvalidStrategy", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStrategy(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStrategyValid(t *testing.T) {
	if !StrategyRange.Valid() || !StrategyNearestNeighbors.Valid() {
		t.Error("defined strategies should be valid")
	}
	if Strategy(0).Valid() || Strategy(99).Valid() {
		t.Error("undefined strategies should be invalid")
	}
}

func TestApplyThreshold(t *testing.T) {
	matches := []Match{
		{Record: Record{ID: "a"}, Distance: 0.1},
		{Record: Record{ID: "b"}, Distance: 0.2},
		{Record: Record{ID: "c"}, Distance: 0.5},
	}

	tests := []struct {
		name string
		max  float64
		want int
	}{
		{name: "zero disables filtering", max: 0, want: 3},
		{name: "negative disables filtering", max: -1, want: 3},
		{name: "mid threshold", max: 0.25, want: 2},
		{name: "inclusive boundary", max: 0.2, want: 2},
		{name: "below all", max: 0.05, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyThreshold(matches, tt.max)
			if len(got) != tt.want {
				t.Errorf("ApplyThreshold(max=%v) kept %d matches, want %d", tt.max, len(got), tt.want)
			}
		})
	}
}

func TestCountKeys(t *testing.T) {
	seq := func(yield func(string, error) bool) {
		for _, id := range []string{"a", "b", "c"} {
			if !yield(id, nil) {
				return
			}
		}
	}

	n, err := CountKeys(seq)
	if err != nil {
		t.Fatalf("CountKeys() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountKeys() = %d, want 3", n)
	}
}

func TestCountKeysPropagatesError(t *testing.T) {
	boom := errors.New("page fetch failed")
	seq := func(yield func(string, error) bool) {
		if !yield("a", nil) {
			return
		}
		yield("", boom)
	}

	_, err := CountKeys(seq)
	if !errors.Is(err, boom) {
		t.Errorf("CountKeys() error = %v, want %v", err, boom)
	}
}
