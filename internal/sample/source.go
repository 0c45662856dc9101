// Package sample reads and writes the text format that carries invader and
// radar samples.
//
// A sample file holds one or more blocks delimited by runs of four '~'
// characters. Within a block each line is a grid row; '-' (in any case) is a
// clear cell and any other character is a set cell. All blocks but the last
// are known invaders, the last is the radar map.
package sample

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/grid"
)

// ErrMalformedInput is returned when a sample file has no blocks, an empty
// block, or ragged rows.
var ErrMalformedInput = errors.New("sample: malformed input")

// MaxFileSize caps the sample files LoadFile accepts.
const MaxFileSize = 16 * 1024 * 1024

const (
	clearSignal = '-'
	setSignal   = 'o'
)

var blockPattern = regexp.MustCompile(`(?s)~{4}(.*?)~{4}`)

// Source yields the known invader grids and the radar grid parsed from one
// sample file.
type Source struct {
	invaders []grid.Grid
	radar    grid.Grid
}

// NewSource splits parsed grids into invaders and radar.
func NewSource(grids []grid.Grid) (*Source, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: no radar sample", ErrMalformedInput)
	}
	last := len(grids) - 1
	return &Source{
		invaders: append([]grid.Grid(nil), grids[:last]...),
		radar:    grids[last],
	}, nil
}

// KnownInvaderGrids returns the invader grids in file order.
func (s *Source) KnownInvaderGrids() []grid.Grid {
	return append([]grid.Grid(nil), s.invaders...)
}

// RadarGrid returns the radar grid.
func (s *Source) RadarGrid() grid.Grid { return s.radar }

// LoadFile reads and parses the sample file at path.
func LoadFile(fsys fsutil.FileSystem, path string) (*Source, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sample file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("sample file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample file: %w", err)
	}
	grids, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewSource(grids)
}

// Parse extracts every delimited block from content, in order.
func Parse(content string) ([]grid.Grid, error) {
	matches := blockPattern.FindAllStringSubmatch(content, -1)
	grids := make([]grid.Grid, 0, len(matches))
	for i, m := range matches {
		g, err := ParseGrid(m[1])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// ParseGrid converts a bare block of rows, as produced by Render, into a grid.
func ParseGrid(text string) (grid.Grid, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return grid.Grid{}, fmt.Errorf("%w: empty sample", ErrMalformedInput)
	}
	lines := strings.Split(text, "\n")
	rows := make([][]uint8, len(lines))
	for r, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		row := make([]uint8, 0, len(line))
		for _, ch := range strings.ToLower(line) {
			if ch == clearSignal {
				row = append(row, 0)
			} else {
				row = append(row, 1)
			}
		}
		rows[r] = row
	}
	g, err := grid.New(rows)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return g, nil
}
