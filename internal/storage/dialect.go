package storage

import (
	"strconv"
	"strings"

	"spendlens/internal/ledger"
)

// Dialect holds the SQL differences between the supported engines. Queries
// are written with "?" placeholders and rebound per dialect.
type Dialect struct {
	Name   string
	Driver string

	numbered bool
	day      func(col string) string
	week     func(col string) string
	month    func(col string) string
	year     func(col string) string
}

// SQLite stores dates as YYYY-MM-DD text.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	day:    func(col string) string { return col },
	week: func(col string) string {
		return "date(" + col + ", '-' || ((CAST(strftime('%w', " + col + ") AS INTEGER) + 6) % 7) || ' days')"
	},
	month: func(col string) string { return "strftime('%Y-%m-01', " + col + ")" },
	year:  func(col string) string { return "strftime('%Y-01-01', " + col + ")" },
}

// Postgres stores dates as DATE; date_trunc('week') starts on Monday.
var Postgres = Dialect{
	Name:     "postgres",
	Driver:   "postgres",
	numbered: true,
	day:      func(col string) string { return "to_char(" + col + ", 'YYYY-MM-DD')" },
	week:     func(col string) string { return "to_char(date_trunc('week', " + col + "), 'YYYY-MM-DD')" },
	month:    func(col string) string { return "to_char(date_trunc('month', " + col + "), 'YYYY-MM-DD')" },
	year:     func(col string) string { return "to_char(date_trunc('year', " + col + "), 'YYYY-MM-DD')" },
}

// Bucket returns an expression yielding the YYYY-MM-DD start of the bucket
// holding the date column, or "" for a whole-range bucket.
func (d Dialect) Bucket(g ledger.Granularity, col string) string {
	switch g {
	case ledger.Day:
		return d.day(col)
	case ledger.Week:
		return d.week(col)
	case ledger.Month:
		return d.month(col)
	case ledger.Year:
		return d.year(col)
	default:
		return ""
	}
}

// DateText renders a date column as YYYY-MM-DD text.
func (d Dialect) DateText(col string) string {
	return d.day(col)
}

// Rebind rewrites "?" placeholders into the dialect's bind style.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
