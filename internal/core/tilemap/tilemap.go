package tilemap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/skirmish/internal/core/systems/physics"
)

// Tile is the kind of a single map cell.
type Tile uint8

const (
	TileEmpty Tile = iota
	TileSolid
	TileSafe
)

// occupancyEpsilon keeps a disc that exactly touches a tile edge from counting as overlapping it.
const occupancyEpsilon = 1e-4

var ErrEmptyMap = errors.New("tilemap: empty map")

// Map is a read-only tile grid. Cells outside the grid are solid.
type Map interface {
	Width() int
	Height() int
	TileAt(x, y int) Tile
}

func InBounds(m Map, x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width() && y < m.Height()
}

func IsSolid(m Map, x, y int) bool { return m.TileAt(x, y) == TileSolid }

// IsSafe reports whether p lies on a safe-zone tile.
func IsSafe(m Map, p physics.Vec2) bool {
	x, y := p.Floor()
	return m.TileAt(x, y) == TileSafe
}

// CanOccupy reports whether an axis-aligned disc of the given radius centered at p overlaps
// no solid tile. A zero radius tests the tile containing p.
func CanOccupy(m Map, p physics.Vec2, radius float64) bool {
	if radius <= 0 {
		x, y := p.Floor()
		return !IsSolid(m, x, y)
	}
	x0 := int(math.Floor(p.X - radius + occupancyEpsilon))
	x1 := int(math.Floor(p.X + radius - occupancyEpsilon))
	y0 := int(math.Floor(p.Y - radius + occupancyEpsilon))
	y1 := int(math.Floor(p.Y + radius - occupancyEpsilon))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if IsSolid(m, x, y) {
				return false
			}
		}
	}
	return true
}

// TileCenter returns the center point of tile (x, y).
func TileCenter(x, y int) physics.Vec2 {
	return physics.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// Fingerprint hashes the dimensions and every tile of m.
func Fingerprint(m Map) uint64 {
	d := xxhash.New()
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(m.Width()))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(m.Height()))
	_, _ = d.Write(hdr[:])
	if g, ok := m.(*Grid); ok {
		_, _ = d.Write(g.cells)
		return d.Sum64()
	}
	row := make([]byte, m.Width())
	for y := 0; y < m.Height(); y++ {
		for x := range row {
			row[x] = byte(m.TileAt(x, y))
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}

// Grid is an in-memory Map.
type Grid struct {
	w, h  int
	cells []byte
}

var _ Map = (*Grid)(nil)

func NewGrid(w, h int) *Grid {
	return &Grid{w: w, h: h, cells: make([]byte, w*h)}
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) TileAt(x, y int) Tile {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return TileSolid
	}
	return Tile(g.cells[y*g.w+x])
}

func (g *Grid) Set(x, y int, t Tile) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y*g.w+x] = byte(t)
}

// Fill sets every tile in the inclusive rectangle.
func (g *Grid) Fill(x0, y0, x1, y1 int, t Tile) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.Set(x, y, t)
		}
	}
}

// Border makes the outermost ring solid.
func (g *Grid) Border() {
	g.Fill(0, 0, g.w-1, 0, TileSolid)
	g.Fill(0, g.h-1, g.w-1, g.h-1, TileSolid)
	g.Fill(0, 0, 0, g.h-1, TileSolid)
	g.Fill(g.w-1, 0, g.w-1, g.h-1, TileSolid)
}

// Parse reads an ASCII map: '#' solid, 's' safe, '.' or ' ' empty. Short rows are padded
// with empty tiles.
func Parse(src string) (*Grid, error) {
	return ParseReader(strings.NewReader(src))
}

func ParseReader(r io.Reader) (*Grid, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	w := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
		if len(line) > w {
			w = len(line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tilemap: read: %w", err)
	}
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 || w == 0 {
		return nil, ErrEmptyMap
	}

	g := NewGrid(w, len(rows))
	for y, line := range rows {
		for x, c := range []byte(line) {
			switch c {
			case '#', 'X':
				g.Set(x, y, TileSolid)
			case 's', 'S':
				g.Set(x, y, TileSafe)
			case '.', ' ':
			default:
				return nil, fmt.Errorf("tilemap: unexpected %q at %d,%d", c, x, y)
			}
		}
	}
	return g, nil
}
