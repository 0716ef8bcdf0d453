package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	sqlFileRe     = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	createTableRe = regexp.MustCompile(`(?is)CREATE TABLE (?:IF NOT EXISTS )?(\w+)\s*\((.*?)\n\);`)
	addColumnRe   = regexp.MustCompile(`(?i)ALTER TABLE (?:IF EXISTS )?(\w+)\s+ADD COLUMN (?:IF NOT EXISTS )?(\w+)`)
	dropColumnRe  = regexp.MustCompile(`(?i)ALTER TABLE (?:IF EXISTS )?(\w+)\s+DROP COLUMN (?:IF EXISTS )?(\w+)`)
)

// Table-level clauses inside CREATE TABLE that do not declare a column.
var constraintPrefixes = []string{"PRIMARY KEY", "FOREIGN KEY", "CHECK", "UNIQUE", "CONSTRAINT"}

// ValidateDir checks migration filenames, version uniqueness and goose
// annotations: both sections present, Up before Down, and balanced
// StatementBegin/StatementEnd pairs.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}
		if err := validateAnnotations(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func validateAnnotations(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	if up < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	down := strings.Index(txt, "-- +goose Down")
	if down < 0 {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	if down < up {
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	for _, section := range []string{txt[up:down], txt[down:]} {
		begins := strings.Count(section, "-- +goose StatementBegin")
		ends := strings.Count(section, "-- +goose StatementEnd")
		if begins != ends {
			return fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd", name, begins, ends)
		}
	}
	return nil
}

// ValidateSQLiteMirror checks that SQLiteSchema declares the same tables and
// columns as the Up sections of the Postgres migrations found in dir.
func ValidateSQLiteMirror(fsys fs.FS, dir string) error {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	postgres := map[string]map[string]bool{}
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		applyColumns(postgres, upSection(string(b)))
	}

	sqlite := map[string]map[string]bool{}
	applyColumns(sqlite, strings.Join(SQLiteSchema, "\n"))

	var problems []string
	for _, table := range sortedKeys(postgres) {
		mirror, ok := sqlite[table]
		if !ok {
			problems = append(problems, fmt.Sprintf("table %s has no sqlite mirror", table))
			continue
		}
		for _, col := range sortedKeys(postgres[table]) {
			if !mirror[col] {
				problems = append(problems, fmt.Sprintf("column %s.%s missing from sqlite mirror", table, col))
			}
		}
		for _, col := range sortedKeys(mirror) {
			if !postgres[table][col] {
				problems = append(problems, fmt.Sprintf("sqlite column %s.%s has no migration", table, col))
			}
		}
	}
	for _, table := range sortedKeys(sqlite) {
		if _, ok := postgres[table]; !ok {
			problems = append(problems, fmt.Sprintf("sqlite table %s has no migration", table))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("sqlite schema out of sync: %s", strings.Join(problems, "; "))
	}
	return nil
}

func upSection(txt string) string {
	if i := strings.Index(txt, "-- +goose Down"); i >= 0 {
		return txt[:i]
	}
	return txt
}

func applyColumns(tables map[string]map[string]bool, sql string) {
	for _, m := range createTableRe.FindAllStringSubmatch(sql, -1) {
		table := strings.ToLower(m[1])
		cols := tables[table]
		if cols == nil {
			cols = map[string]bool{}
			tables[table] = cols
		}
		for _, line := range strings.Split(m[2], "\n") {
			if col := columnName(line); col != "" {
				cols[col] = true
			}
		}
	}
	for _, m := range addColumnRe.FindAllStringSubmatch(sql, -1) {
		if cols := tables[strings.ToLower(m[1])]; cols != nil {
			cols[strings.ToLower(m[2])] = true
		}
	}
	for _, m := range dropColumnRe.FindAllStringSubmatch(sql, -1) {
		if cols := tables[strings.ToLower(m[1])]; cols != nil {
			delete(cols, strings.ToLower(m[2]))
		}
	}
}

func columnName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "--") {
		return ""
	}
	upper := strings.ToUpper(line)
	for _, prefix := range constraintPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return ""
		}
	}
	fields := strings.Fields(line)
	return strings.ToLower(strings.TrimSuffix(fields[0], ","))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
