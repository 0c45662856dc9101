package sample

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/testutil"
)

const fixture = `# Space invaders

Known invaders:

~~~~
--o-----o--
---o---o---
--ooooooo--
~~~~

~~~~
---oo---
--oOOo--
~~~~

Radar sample:

~~~~
----o--oo----o--ooo--
--o-o-----oo--o------
-------o--o-o-----o--
~~~~
`

func TestParseFixture(t *testing.T) {
	grids, err := Parse(fixture)
	testutil.AssertNoError(t, err)
	if len(grids) != 3 {
		t.Fatalf("Parse() returned %d samples, want 3", len(grids))
	}

	want := [][2]int{{3, 11}, {2, 8}, {3, 21}}
	for i, g := range grids {
		r, c := g.Dimensions()
		if r != want[i][0] || c != want[i][1] {
			t.Errorf("sample %d dimensions = (%d,%d), want %v", i, r, c, want[i])
		}
	}

	// Uppercase 'O' is a set cell like 'o'.
	if diff := cmp.Diff([][]uint8{{0, 0, 0, 1, 1, 0, 0, 0}, {0, 0, 1, 1, 1, 1, 0, 0}}, grids[1].Rows()); diff != "" {
		t.Errorf("sample 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCharacterMapping(t *testing.T) {
	g, err := ParseGrid("-xO\r\n#--\r\n")
	testutil.AssertNoError(t, err)

	want := [][]uint8{{0, 1, 1}, {1, 0, 0}}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Errorf("ParseGrid() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "ragged rows", content: "~~~~\noo-\no\n~~~~"},
		{name: "empty block", content: "~~~~\n\n~~~~"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.content); !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Parse() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestNewSourceSplitsRadar(t *testing.T) {
	grids, err := Parse(fixture)
	testutil.AssertNoError(t, err)

	src, err := NewSource(grids)
	testutil.AssertNoError(t, err)

	if n := len(src.KnownInvaderGrids()); n != 2 {
		t.Errorf("KnownInvaderGrids() has %d grids, want 2", n)
	}
	if !src.RadarGrid().Equal(grids[2]) {
		t.Error("RadarGrid() should be the last parsed sample")
	}

	if _, err := NewSource(nil); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("NewSource(nil) error = %v, want ErrMalformedInput", err)
	}
}

func TestNewSourceRadarOnly(t *testing.T) {
	grids, err := Parse("~~~~\no-\n~~~~")
	testutil.AssertNoError(t, err)

	src, err := NewSource(grids)
	testutil.AssertNoError(t, err)
	if len(src.KnownInvaderGrids()) != 0 {
		t.Error("a single sample should be the radar with no invaders")
	}
}

func TestLoadFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.AssertNoError(t, mfs.WriteFile("/data/README.md", []byte(fixture), 0644))

	src, err := LoadFile(mfs, "/data/README.md")
	testutil.AssertNoError(t, err)
	if len(src.KnownInvaderGrids()) != 2 {
		t.Errorf("LoadFile() invaders = %d, want 2", len(src.KnownInvaderGrids()))
	}

	testutil.AssertNoError(t, mfs.WriteFile("/data/empty.md", []byte("no samples here"), 0644))
	if _, err := LoadFile(mfs, "/data/empty.md"); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("LoadFile(empty) error = %v, want ErrMalformedInput", err)
	}

	testutil.AssertError(t, func() error { _, err := LoadFile(mfs, "/data/missing.md"); return err }())
}

func TestRender(t *testing.T) {
	g := testutil.MustGrid(t, "o-o", "-x-")

	if got, want := Render(g), "o-o\n-o-\n"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	back, err := ParseGrid(Render(g))
	testutil.AssertNoError(t, err)
	if !back.Equal(g) {
		t.Error("ParseGrid(Render(g)) should reproduce g")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		name  string
		want  string
	}{
		{input: "/data/README.md", want: "/data/cleaned_map.md"},
		{input: "samples/radar.txt", name: "result", want: "samples/result.txt"},
		{input: "plain", want: "cleaned_map"},
	}
	for _, tc := range tests {
		if got := OutputPath(tc.input, tc.name); got != tc.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.input, tc.name, got, tc.want)
		}
	}
}

func TestWrite(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.AssertNoError(t, Write(mfs, "/out/cleaned_map.md", "o-\n"))

	data, err := mfs.ReadFile("/out/cleaned_map.md")
	testutil.AssertNoError(t, err)
	if string(data) != "o-\n" {
		t.Errorf("written = %q, want %q", data, "o-\n")
	}
}
