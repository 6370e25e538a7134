package catalog_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"plantguard/internal/catalog"
	"plantguard/internal/domain"
)

// writeCP1252 writes content to dir/name encoded the way the real data files are.
func writeCP1252(t *testing.T, dir, name, content string) string {
	t.Helper()
	encoded, err := charmap.Windows1252.NewEncoder().String(content)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}

func diseaseCSV(n int) string {
	var b strings.Builder
	b.WriteString("index,disease_name,description,Possible Steps,image_url\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,Disease %d,Description of %d,\"Step one, step two\",https://img.example/d%d.jpg\n", i, i, i, i)
	}
	return b.String()
}

func supplementCSV(n int) string {
	var b strings.Builder
	b.WriteString("index,disease_name,supplement name,supplement image,buy link\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,Disease %d,Supplement %d,https://img.example/s%d.jpg,https://shop.example/%d\n", i, i, i, i, i)
	}
	return b.String()
}

func loadFixture(t *testing.T, diseases, supplements int) (*catalog.Store, error) {
	t.Helper()
	dir := t.TempDir()
	d := writeCP1252(t, dir, "disease_info.csv", diseaseCSV(diseases))
	s := writeCP1252(t, dir, "supplement_info.csv", supplementCSV(supplements))
	return catalog.Load(d, s, catalog.DefaultNumClasses)
}

func TestLoad_AlignedTables(t *testing.T) {
	store, err := loadFixture(t, 39, 39)
	require.NoError(t, err)
	assert.Equal(t, 39, store.Len())

	for i := 0; i < store.Len(); i++ {
		info, err := store.Lookup(i)
		require.NoError(t, err, "index %d", i)
		assert.Equal(t, i, info.ClassIndex)
		assert.Equal(t, fmt.Sprintf("Disease %d", i), info.DiseaseName)
		assert.Equal(t, fmt.Sprintf("Supplement %d", i), info.Supplement.Name)
	}

	info, err := store.Lookup(3)
	require.NoError(t, err)
	assert.Equal(t, "Step one, step two", info.PossibleSteps)
	assert.Equal(t, "https://img.example/d3.jpg", info.DiseaseImageURL)
	assert.Equal(t, "https://img.example/s3.jpg", info.Supplement.ImageURL)
	assert.Equal(t, "https://shop.example/3", info.Supplement.BuyLink)
}

func TestLookup_OutOfRange(t *testing.T) {
	store, err := loadFixture(t, 39, 39)
	require.NoError(t, err)

	for _, idx := range []int{-1, 39, 1000} {
		_, err := store.Lookup(idx)
		assert.True(t, errors.Is(err, catalog.ErrNotFound), "index %d should not be found", idx)
	}
}

func TestLoad_LengthMismatch(t *testing.T) {
	_, err := loadFixture(t, 39, 38)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrMisaligned))
}

func TestLoad_WrongClassCount(t *testing.T) {
	_, err := loadFixture(t, 38, 38)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrMisaligned))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := catalog.Load(filepath.Join(t.TempDir(), "nope.csv"), "also-nope.csv", 39)
	require.Error(t, err)
	assert.False(t, errors.Is(err, catalog.ErrMisaligned))
}

func TestLoad_DecodesWindows1252(t *testing.T) {
	dir := t.TempDir()
	d := writeCP1252(t, dir, "d.csv", "disease_name,description,Possible Steps,image_url\nCercospora leaf spot,Café-coloured lesions – grey centres,Rotate crops,u\n")
	s := writeCP1252(t, dir, "s.csv", "supplement name,supplement image,buy link\nFungicide,i,b\n")

	store, err := catalog.Load(d, s, 1)
	require.NoError(t, err)
	info, err := store.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, "Café-coloured lesions – grey centres", info.Description)
}

func TestNew_RowIndexDrift(t *testing.T) {
	diseases := []domain.DiseaseRecord{{ClassIndex: 0}, {ClassIndex: 2}}
	supplements := []domain.SupplementRecord{{ClassIndex: 0}, {ClassIndex: 1}}

	_, err := catalog.New(diseases, supplements, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrMisaligned))
}

func TestEntries_InClassOrder(t *testing.T) {
	store, err := loadFixture(t, 39, 39)
	require.NoError(t, err)

	entries := store.Entries()
	require.Len(t, entries, 39)
	for i, e := range entries {
		assert.Equal(t, i, e.ClassIndex)
	}
}
