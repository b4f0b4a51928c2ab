package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/catalog"
)

const sampleCSV = `product_type,product_brand,product_price,product_rating,product_review,category_type
Carrot,FreshFarm,1.50,4.5,120,Vegetables
Milk,Jempio,3.20,4.6,200,Dairy
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FUZZY_SCORE_THRESHOLD", "80")
	t.Setenv("CONVERSATION_EXIT_KEYWORDS", "stop,done")

	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", c.Decision.Model)
	assert.InDelta(t, 0.56, c.Decision.Temperature, 1e-6)
	assert.Equal(t, 80, c.Match.Threshold)
	assert.Equal(t, []string{"stop", "done"}, c.Conversation.ExitKeywords)
	assert.Equal(t, 4, c.Conversation.Tools.Parallelism)
	assert.Equal(t, 10*time.Minute, c.Catalog.CacheTTL)
	assert.False(t, c.Redis.Enabled())
}

func TestOpenCatalogSeedsSQLite(t *testing.T) {
	c := AppConfig{}
	c.Catalog.DB = filepath.Join(t.TempDir(), "nested", "catalog.db")
	c.Catalog.CSV = writeCSV(t)

	acc, closeAll, err := openCatalog(context.Background(), c, true)
	require.NoError(t, err)
	defer closeAll()

	rows, err := acc.Lookup(context.Background(), catalog.Filter{ProductType: "milk"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jempio", rows[0].Brand)
}

func TestOpenCatalogUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := AppConfig{}
	c.Redis.URL = "redis://" + mr.Addr()
	c.Redis.DialTimeout = 1
	c.Catalog.DB = filepath.Join(t.TempDir(), "catalog.db")
	c.Catalog.CSV = writeCSV(t)
	c.Catalog.CacheTTL = time.Minute

	acc, closeAll, err := openCatalog(context.Background(), c, true)
	require.NoError(t, err)
	defer closeAll()

	_, ok := acc.(*catalog.RedisCache)
	require.True(t, ok)
	cats, err := acc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dairy", "Vegetables"}, cats)
	assert.NotEmpty(t, mr.Keys())
}

func TestImportRejectsMissingFile(t *testing.T) {
	c := AppConfig{}
	c.Catalog.DB = filepath.Join(t.TempDir(), "catalog.db")
	c.Catalog.CSV = filepath.Join(t.TempDir(), "missing.csv")

	_, _, err := openCatalog(context.Background(), c, true)
	assert.Error(t, err)
}
