package store_test

import (
	"os"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/store/storetest"
)

var (
	createTableRe = regexp.MustCompile(`(?s)CREATE TABLE (?:IF NOT EXISTS )?(\w+) \((.*?)\n\);`)
	tableKeyRe    = regexp.MustCompile(`^(UNIQUE|PRIMARY KEY) \(([^)]*)\)`)
)

// tableShape is the part of a table definition both dialects must agree on
type tableShape struct {
	Columns []string
	Keys    []string
}

func parseTables(t *testing.T, ddl string) map[string]tableShape {
	t.Helper()
	tables := make(map[string]tableShape)
	for _, m := range createTableRe.FindAllStringSubmatch(ddl, -1) {
		var shape tableShape
		for _, line := range strings.Split(m[2], "\n") {
			line = strings.TrimSuffix(strings.TrimSpace(line), ",")
			if line == "" {
				continue
			}
			if k := tableKeyRe.FindStringSubmatch(line); k != nil {
				shape.Keys = append(shape.Keys, k[1]+"("+strings.ReplaceAll(k[2], " ", "")+")")
				continue
			}
			col := strings.Fields(line)[0]
			shape.Columns = append(shape.Columns, col)
			if strings.Contains(line, " UNIQUE") {
				shape.Keys = append(shape.Keys, "UNIQUE("+col+")")
			}
		}
		sort.Strings(shape.Keys)
		tables[m[1]] = shape
	}
	require.NotEmpty(t, tables, "no CREATE TABLE statements found")
	return tables
}

func TestTestSchemaMatchesMigration(t *testing.T) {
	migration, err := os.ReadFile("migrations/0001_init.up.sql")
	require.NoError(t, err)

	want := parseTables(t, string(migration))
	got := parseTables(t, storetest.Schema)

	assert.Len(t, got, len(want))
	for name, shape := range want {
		other, ok := got[name]
		if !assert.True(t, ok, "table %s missing from the SQLite schema", name) {
			continue
		}
		assert.Equal(t, shape.Columns, other.Columns, "columns of %s", name)
		assert.Equal(t, shape.Keys, other.Keys, "keys of %s", name)
	}
}
