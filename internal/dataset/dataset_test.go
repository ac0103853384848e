package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/tabulario/datalens/internal/domain/errs"
)

// writeCSV writes content into a temp data directory and returns the
// file path.
func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test CSV: %v", err)
	}
	return path
}

func kindOf(t *testing.T, err error) errs.Kind {
	t.Helper()
	e, ok := err.(*errs.Error)
	if !ok {
		t.Fatalf("expected typed error, got %T: %v", err, err)
	}
	return e.Kind
}

func TestLoadBasic(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "people.csv",
		"name,age,active\nalice,30,true\nbob,25,false\ncarol,41,yes\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	assert.Equal(t, 3, table.RowCount())
	assert.DeepEqual(t, []string{"name", "age", "active"}, table.ColumnNames())

	age, ok := table.Column("age")
	assert.Assert(t, ok)
	assert.Equal(t, TypeNumeric, age.Type)
	assert.Equal(t, 30.0, age.Values[0].Num)

	active, ok := table.Column("active")
	assert.Assert(t, ok)
	assert.Equal(t, TypeBoolean, active.Type)
	assert.Equal(t, true, active.Values[2].Bool)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.csv"))
		assert.Equal(t, errs.NotFound, kindOf(t, err))
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(dir)
		assert.Equal(t, errs.NotFound, kindOf(t, err))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, dir, "empty.csv", "")
		_, err := Load(path)
		assert.Equal(t, errs.Empty, kindOf(t, err))
	})

	t.Run("header only", func(t *testing.T) {
		path := writeCSV(t, dir, "header.csv", "a,b,c\n")
		_, err := Load(path)
		assert.Equal(t, errs.Empty, kindOf(t, err))
	})

	t.Run("ragged rows", func(t *testing.T) {
		path := writeCSV(t, dir, "ragged.csv", "a,b\n1,2\n3\n")
		_, err := Load(path)
		assert.Equal(t, errs.ParseError, kindOf(t, err))
	})

	t.Run("duplicate header", func(t *testing.T) {
		path := writeCSV(t, dir, "dup.csv", "a,a\n1,2\n")
		_, err := Load(path)
		assert.Equal(t, errs.ParseError, kindOf(t, err))
	})
}

func TestInferType(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
		want  Type
	}{
		{"all numeric", []string{"1", "2", "3"}, TypeNumeric},
		{"numeric with missing", []string{"1", "", "3.5", "N/A"}, TypeNumeric},
		{"one non-numeric cell", []string{"1", "2", "x"}, TypeText},
		{"booleans", []string{"true", "false", "yes", "NO"}, TypeBoolean},
		{"digits stay numeric", []string{"1", "0", "1"}, TypeNumeric},
		{"all missing", []string{"", "null", "n/a"}, TypeText},
		{"negative and scientific", []string{"-4", "1e3", "0.25"}, TypeNumeric},
		{"plain text", []string{"alpha", "beta"}, TypeText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inferType(tc.cells))
		})
	}
}

func TestMissingCells(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "gaps.csv",
		"city,pop\nlagos,NULL\nnairobi,4300000\n,\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	pop, _ := table.Column("pop")
	assert.Equal(t, TypeNumeric, pop.Type)
	assert.Equal(t, 1, pop.NonNullCount())
	assert.Equal(t, 2, pop.NullCount())
	assert.Assert(t, pop.Values[0].Null)
	assert.Equal(t, "", pop.Values[0].Format())

	city, _ := table.Column("city")
	assert.Assert(t, city.Values[2].Null)
}

func TestCoerce(t *testing.T) {
	t.Run("numeric from json number", func(t *testing.T) {
		v, ok := Coerce(float64(30), TypeNumeric)
		assert.Assert(t, ok)
		assert.Equal(t, 30.0, v.Num)
	})

	t.Run("numeric from string", func(t *testing.T) {
		v, ok := Coerce("42.5", TypeNumeric)
		assert.Assert(t, ok)
		assert.Equal(t, 42.5, v.Num)
	})

	t.Run("numeric rejects text", func(t *testing.T) {
		_, ok := Coerce("thirty", TypeNumeric)
		assert.Assert(t, !ok)
	})

	t.Run("boolean token", func(t *testing.T) {
		v, ok := Coerce("yes", TypeBoolean)
		assert.Assert(t, ok)
		assert.Equal(t, true, v.Bool)
	})

	t.Run("boolean rejects number", func(t *testing.T) {
		_, ok := Coerce(float64(1), TypeBoolean)
		assert.Assert(t, !ok)
	})

	t.Run("text accepts number", func(t *testing.T) {
		v, ok := Coerce(float64(7), TypeText)
		assert.Assert(t, ok)
		assert.Equal(t, "7", v.Raw)
	})
}

func TestDerive(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "nums.csv", "n\n10\n20\n30\n40\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	derived := table.Derive([]int{3, 1})
	assert.Equal(t, 2, derived.RowCount())
	col, _ := derived.Column("n")
	assert.Equal(t, 40.0, col.Values[0].Num)
	assert.Equal(t, 20.0, col.Values[1].Num)

	// Source table is untouched.
	assert.Equal(t, 4, table.RowCount())
}

func TestStoreResolve(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, bad := range []string{"../etc/passwd", "/etc/passwd", "..", "."} {
		_, err := store.Resolve(bad)
		if err == nil {
			t.Errorf("Resolve(%q) should have been rejected", bad)
			continue
		}
		assert.Equal(t, errs.NotFound, kindOf(t, err))
	}

	path, err := store.Resolve("sales.csv")
	assert.NilError(t, err)
	assert.Equal(t, filepath.Join(store.DataDir(), "sales.csv"), path)
}

func TestStoreCache(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	writeCSV(t, dir, "cached.csv", "v\n1\n")

	first, err := store.Get("cached.csv")
	assert.NilError(t, err)

	again, err := store.Get("cached.csv")
	assert.NilError(t, err)
	if first != again {
		t.Fatal("unchanged file should hit the cache")
	}

	// Rewrite with a bumped mtime to force invalidation.
	path := writeCSV(t, dir, "cached.csv", "v\n1\n2\n")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("failed to bump mtime: %v", err)
	}

	updated, err := store.Get("cached.csv")
	assert.NilError(t, err)
	assert.Equal(t, 2, updated.RowCount())
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	writeCSV(t, dir, "b.csv", "x\n1\n")
	writeCSV(t, dir, "a.csv", "x\n1\n")
	writeCSV(t, dir, "notes.txt", "ignore me")

	names, err := store.List()
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"a.csv", "b.csv"}, names)
}
