package sample

import (
	"path/filepath"
	"strings"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/grid"
)

// DefaultOutputName is the base name of the cleaned map written next to the
// input file.
const DefaultOutputName = "cleaned_map"

// Render maps 0 to '-' and 1 to 'o', one newline-terminated line per row.
func Render(g grid.Grid) string {
	rows, cols := g.Dimensions()
	var b strings.Builder
	b.Grow(rows * (cols + 1))
	for _, row := range g.Rows() {
		for _, v := range row {
			if v == 1 {
				b.WriteByte(setSignal)
			} else {
				b.WriteByte(clearSignal)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// OutputPath places name, with the input's extension, in the input's
// directory. An empty name means DefaultOutputName.
func OutputPath(inputPath, name string) string {
	if name == "" {
		name = DefaultOutputName
	}
	return filepath.Join(filepath.Dir(inputPath), name+filepath.Ext(inputPath))
}

// Write stores text at path.
func Write(fsys fsutil.FileSystem, path, text string) error {
	return fsys.WriteFile(path, []byte(text), 0644)
}
