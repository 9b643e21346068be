// Package catalog loads measurement routes: the point CSV format and the
// YAML registry of known sites.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// ErrNoPoints is returned when a route file yields no usable rows.
var ErrNoPoints = errors.New("route file has no points")

// Parse reads a route in the id,name,category,routeOrder format. The first
// line is a header when one of its columns contains an id or name word. Rows missing an
// id or name are dropped, unknown categories fall back to general, a missing
// route order defaults to the row's position, and later duplicates of an id
// are ignored. Points come back sorted by route order.
func Parse(r io.Reader) ([]domain.PointDefinition, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var (
		points []domain.PointDefinition
		seen   = make(map[string]bool)
		first  = true
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading route: %w", err)
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if first {
			first = false
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
			if isHeader(row) {
				continue
			}
		}
		if len(row) < 2 || row[0] == "" || row[1] == "" || seen[row[0]] {
			continue
		}
		seen[row[0]] = true

		p := domain.PointDefinition{
			ID:         row[0],
			Name:       row[1],
			Category:   domain.CategoryGeneral,
			RouteOrder: len(points) + 1,
		}
		if len(row) > 2 {
			p.Category = domain.ParseCategory(row[2])
		}
		if len(row) > 3 {
			if n, err := strconv.Atoi(row[3]); err == nil && n > 0 {
				p.RouteOrder = n
			}
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].RouteOrder < points[j].RouteOrder
	})
	return points, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) ([]domain.PointDefinition, error) {
	return Parse(strings.NewReader(s))
}

// isHeader reports whether any column has an id or name word in it, so
// id, point_id, pointId and Point Name all mark a header row while a data
// name such as Bridge deck does not.
func isHeader(row []string) bool {
	for _, col := range row {
		for _, w := range words(col) {
			switch strings.ToLower(w) {
			case "id", "name":
				return true
			}
		}
	}
	return false
}

// words splits s at non-letters and at lower-to-upper case changes.
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}
