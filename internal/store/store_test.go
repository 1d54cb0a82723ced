// ABOUTME: Tests for SQLite tenant and catalog persistence.
// ABOUTME: Covers key lookups, atomic usage increments, and random catalog selection.

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// testTenant returns a tenant with unique keys derived from seed.
func testTenant(seed string) *Tenant {
	return &Tenant{
		Name:           "tenant-" + seed,
		APIKey:         "pk_" + seed,
		SecretKey:      "sk_" + seed,
		AllowedOrigins: []string{"https://example.com"},
		Plan:           PlanFree,
	}
}

func TestStore_CreateTenant(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tenant := testTenant("abc")
	require.NoError(t, store.CreateTenant(ctx, tenant))
	assert.NotEmpty(t, tenant.ID)

	retrieved, err := store.GetTenantByAPIKey(ctx, "pk_abc")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, retrieved.ID)
	assert.Equal(t, "tenant-abc", retrieved.Name)
	assert.Equal(t, []string{"https://example.com"}, retrieved.AllowedOrigins)
	assert.Equal(t, PlanFree, retrieved.Plan)
	assert.Equal(t, int64(0), retrieved.UsageCount)
}

func TestStore_CreateTenant_DuplicateAPIKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTenant(ctx, testTenant("dup")))

	clash := testTenant("dup2")
	clash.APIKey = "pk_dup"
	err := store.CreateTenant(ctx, clash)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestStore_OriginAllowlisted(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTenant(ctx, testTenant("o1")))

	allowed, err := store.OriginAllowlisted(ctx, "https://example.com")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.OriginAllowlisted(ctx, "https://evil.example.com")
	require.NoError(t, err)
	assert.False(t, allowed)

	// A stored origin must match exactly, not as a prefix.
	allowed, err = store.OriginAllowlisted(ctx, "https://example.co")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = store.OriginAllowlisted(ctx, "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestStore_OriginAllowlisted_Wildcard(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	wildcard := testTenant("wild")
	wildcard.AllowedOrigins = []string{"*"}
	require.NoError(t, store.CreateTenant(ctx, wildcard))

	allowed, err := store.OriginAllowlisted(ctx, "https://anything.example.net")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestStore_GetTenantByAPIKey_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetTenantByAPIKey(context.Background(), "pk_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetTenantBySecretKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tenant := testTenant("sec")
	require.NoError(t, store.CreateTenant(ctx, tenant))

	retrieved, err := store.GetTenantBySecretKey(ctx, "sk_sec")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, retrieved.ID)
}

func TestStore_KeyNamespacesNotCrossValidated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTenant(ctx, testTenant("ns")))

	// An API key must never resolve through the secret-key lookup and vice versa.
	_, err := store.GetTenantBySecretKey(ctx, "pk_ns")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetTenantByAPIKey(ctx, "sk_ns")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_IncrementUsage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTenant(ctx, testTenant("inc")))

	for range 3 {
		require.NoError(t, store.IncrementUsage(ctx, "pk_inc"))
	}

	retrieved, err := store.GetTenantByAPIKey(ctx, "pk_inc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), retrieved.UsageCount)
}

func TestStore_IncrementUsage_UnknownKey(t *testing.T) {
	store := setupTestStore(t)

	err := store.IncrementUsage(context.Background(), "pk_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_IncrementUsage_Concurrent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTenant(ctx, testTenant("race")))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.IncrementUsage(ctx, "pk_race")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every concurrent increment must be reflected; a lost update is a
	// correctness bug.
	retrieved, err := store.GetTenantByAPIKey(ctx, "pk_race")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), retrieved.UsageCount)
}

func TestStore_RandomContentRef_Empty(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RandomContentRef(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RandomContentRef(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	refs := map[string]bool{}
	for i := range 5 {
		ref := fmt.Sprintf("models/cube-%d.glb", i)
		refs[ref] = true
		require.NoError(t, store.AddContent(ctx, &ContentItem{ContentRef: ref}))
	}

	for range 20 {
		ref, err := store.RandomContentRef(ctx)
		require.NoError(t, err)
		assert.True(t, refs[ref], "selected ref %q not in catalog", ref)
	}
}

func TestStore_AddContent_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddContent(ctx, &ContentItem{ContentRef: "models/cube.glb"}))
	err := store.AddContent(ctx, &ContentItem{ContentRef: "models/cube.glb"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestStore_Ping(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))
}
