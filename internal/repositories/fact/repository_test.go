package fact_test

import (
	"context"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/internal/repositories/fact"
	"github.com/Ramsey-B/aster/pkg/database"
	etlfact "github.com/Ramsey-B/aster/pkg/etl/fact"
	"github.com/Ramsey-B/aster/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("WAREHOUSE_DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("WAREHOUSE_DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("WAREHOUSE_DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("WAREHOUSE_DB_NAME")
	if dbName == "" {
		dbName = "warehouse"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func resetWarehouse(t *testing.T, db database.DB) {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE fact_sales RESTART IDENTITY")
	require.NoError(t, err)
	for _, dt := range models.DimensionTypes {
		_, err := db.ExecContext(ctx, "TRUNCATE TABLE "+dt.Table()+" RESTART IDENTITY CASCADE")
		require.NoError(t, err)
	}
}

func seedDimensions(t *testing.T, db database.DB) models.DimensionKeys {
	ctx := context.Background()
	var keys models.DimensionKeys

	require.NoError(t, db.GetContext(ctx, &keys.CustomerKey,
		"INSERT INTO dim_customer (customer_name, load_id) VALUES ($1, 1) RETURNING customer_key", "Alice"))
	require.NoError(t, db.GetContext(ctx, &keys.ManagerKey,
		"INSERT INTO dim_manager (manager_name, load_id) VALUES ($1, 1) RETURNING manager_key", "Bob"))
	require.NoError(t, db.GetContext(ctx, &keys.ProductKey,
		"INSERT INTO dim_product (product_name, load_id) VALUES ($1, 1) RETURNING product_key", "Widget"))

	return keys
}

func TestFactRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := fact.NewRepository(db, getTestLogger())
	ctx := context.Background()

	resetWarehouse(t, db)
	keys := seedDimensions(t, db)

	sale := models.FactSale{
		OrderID:     1,
		CustomerKey: keys.CustomerKey,
		ManagerKey:  keys.ManagerKey,
		ProductKey:  keys.ProductKey,
		Quantity:    2,
		TotalPrice:  40,
		Status:      "new",
		LoadID:      1,
	}

	t.Run("NextLoadID on empty warehouse is 1", func(t *testing.T) {
		loadID, err := repo.NextLoadID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), loadID)
	})

	t.Run("LatestByOrder with no versions is nil", func(t *testing.T) {
		latest, err := repo.LatestByOrder(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("Insert and LatestByOrder", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, sale))

		latest, err := repo.LatestByOrder(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "new", latest.Status)
		assert.Equal(t, int64(1), latest.LoadID)
	})

	t.Run("LatestByOrder picks the greatest load_id", func(t *testing.T) {
		shipped := sale
		shipped.Status = "shipped"
		shipped.LoadID = 2
		require.NoError(t, repo.Insert(ctx, shipped))

		latest, err := repo.LatestByOrder(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "shipped", latest.Status)
		assert.Equal(t, int64(2), latest.LoadID)
	})

	t.Run("NextLoadID advances past the greatest epoch", func(t *testing.T) {
		loadID, err := repo.NextLoadID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), loadID)
	})

	t.Run("DeleteExactDuplicates keeps the lowest sale_id", func(t *testing.T) {
		// duplicate of the load 1 row in every column
		dup := sale
		require.NoError(t, repo.Insert(ctx, dup))

		removed, err := repo.DeleteExactDuplicates(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		var count int
		require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM fact_sales"))
		assert.Equal(t, 2, count)

		var minID int64
		require.NoError(t, db.GetContext(ctx, &minID, "SELECT MIN(sale_id) FROM fact_sales WHERE status = 'new'"))
		assert.Equal(t, int64(1), minID)
	})

	t.Run("InTx rolls back on error", func(t *testing.T) {
		err := repo.InTx(ctx, func(s etlfact.Store) error {
			next := sale
			next.OrderID = 99
			if err := s.Insert(ctx, next); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		latest, err := repo.LatestByOrder(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}
