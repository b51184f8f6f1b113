package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Trial", "D", "Time"}
	rows := [][]string{
		{"1", "100.00", "0.5000"},
		{"10", "7.50", "1.2500"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Trial      D   Time" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "1     100.00 0.5000" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "10      7.50 1.2500" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"김", "1"}, {"ab", "2"}}, nil)
	if lines[1] != "김   1" {
		t.Fatalf("expected double-width rune padding, got %q", lines[1])
	}
}
