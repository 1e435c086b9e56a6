package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopledger-backend/pkg/db/models"
	"github.com/angelmondragon/shopledger-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.ProductBatch{}))
	return conn
}

func seedCatalogProduct(t *testing.T, repo Repository, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:        name,
		Category:    "pharmacy",
		UnitsInPack: 12,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), product))
	return product
}

func TestRepositoryFindByIDLoadsBatchesInArrivalOrder(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	product := seedCatalogProduct(t, repo, "Ibuprofen 200mg")

	older := &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 24, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.ProductBatch{ProductID: product.ID, BatchNumber: "B2", Quantity: 12, CreatedAt: time.Now()}
	require.NoError(t, repo.InsertBatch(ctx, newer))
	require.NoError(t, repo.InsertBatch(ctx, older))

	loaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Batches, 2)
	require.Equal(t, "B1", loaded.Batches[0].BatchNumber)
	require.Equal(t, "B2", loaded.Batches[1].BatchNumber)
}

func TestRepositoryFindByIDSkipsSoftDeleted(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := seedCatalogProduct(t, repo, "Retired")

	now := time.Now()
	require.NoError(t, conn.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("deleted_at", now).Error)

	_, err := repo.FindByID(ctx, product.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryLockBatchesReturnsOnlyMatchingNumber(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	product := seedCatalogProduct(t, repo, "Vitamin C")

	require.NoError(t, repo.InsertBatch(ctx, &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 10}))
	require.NoError(t, repo.InsertBatch(ctx, &models.ProductBatch{ProductID: product.ID, BatchNumber: "B2", Quantity: 20}))

	rows, err := repo.LockBatches(ctx, product.ID, "B1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 10, rows[0].Quantity)
}

func TestRepositoryDeleteBatchesRemovesEveryRowWithNumber(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	product := seedCatalogProduct(t, repo, "Zinc")

	// Advisory uniqueness: the same number can appear on several rows.
	require.NoError(t, repo.InsertBatch(ctx, &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 5}))
	require.NoError(t, repo.InsertBatch(ctx, &models.ProductBatch{ProductID: product.ID, BatchNumber: "B1", Quantity: 7}))
	require.NoError(t, repo.InsertBatch(ctx, &models.ProductBatch{ProductID: product.ID, BatchNumber: "B2", Quantity: 9}))

	removed, err := repo.DeleteBatches(ctx, product.ID, "B1")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	rows, err := repo.LockBatches(ctx, product.ID, "B2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRepositoryListPaginatesByCursor(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		product := &models.Product{
			ID:          uuid.New(),
			Name:        fmt.Sprintf("Item %d", i),
			Category:    "pharmacy",
			UnitsInPack: 1,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateProduct(ctx, product))
	}

	first, next, err := repo.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	second, _, err := repo.List(ctx, pagination.Params{Limit: 3, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 3)
	for _, p := range second {
		require.NotEqual(t, first[0].ID, p.ID)
		require.NotEqual(t, first[1].ID, p.ID)
	}
}
