package worker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBatches(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  []int // batch lengths
	}{
		{"even", []int{1, 2, 3, 4}, 2, []int{2, 2}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, []int{2, 2, 1}},
		{"single batch", []int{1, 2}, 5, []int{2}},
		{"empty", nil, 3, []int{}},
		{"zero size means one per batch", []int{1, 2, 3}, 0, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Batches(tt.items, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d batches, got %d", len(tt.want), len(got))
			}
			next := 1
			for i, b := range got {
				if len(b) != tt.want[i] {
					t.Errorf("batch %d: expected len %d, got %d", i, tt.want[i], len(b))
				}
				for _, v := range b {
					if v != next {
						t.Errorf("order broken: expected %d, got %d", next, v)
					}
					next++
				}
			}
		})
	}
}

func TestReadLines(t *testing.T) {
	content := `
# ids to re-run
2501.00001
2501.00002

2501.00001
`
	tmpFile := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(tmpFile)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "2501.00001" || lines[1] != "2501.00002" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestReadLines_MissingFile(t *testing.T) {
	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
