package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/gs1"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  gtin TEXT UNIQUE,
  brand TEXT,
  name TEXT NOT NULL,
  category TEXT,
  sub_category TEXT,
  description TEXT,
  material TEXT,
  net_weight REAL,
  measurement_unit TEXT,
  country_of_origin TEXT,
  images TEXT,
  created_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubLookup struct {
	product *gs1.Product
	err     error
	calls   int
}

func (s *stubLookup) Lookup(ctx context.Context, gtin string) (*gs1.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func TestResolveBarcodeRejectsBadGTIN(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)), nil)
	require.NoError(t, err)

	for _, gtin := range []string{"", "abc", "12345", "123456789012345"} {
		_, err := svc.ResolveBarcode(context.Background(), gtin, uuid.New())
		require.Error(t, err, "gtin %q should be rejected", gtin)
	}
}

func TestResolveBarcodeFetchesAndPersistsOnMiss(t *testing.T) {
	db := setupCatalogTestDB(t)
	lookup := &stubLookup{product: &gs1.Product{
		GTIN:        "8901234567890",
		Brand:       "Amul",
		Name:        "Amul Taaza Toned Milk",
		Category:    "Dairy",
		Description: "Toned milk pouch",
		Images:      []string{"https://img.test/milk.jpg"},
	}}
	svc, err := NewService(NewRepository(db), lookup)
	require.NoError(t, err)

	userID := uuid.New()
	product, err := svc.ResolveBarcode(context.Background(), "8901234567890", userID)
	require.NoError(t, err)
	require.Equal(t, "Amul Taaza Toned Milk", product.Name)
	require.NotNil(t, product.Brand)
	require.Equal(t, "Amul", *product.Brand)
	require.Equal(t, 1, lookup.calls)

	// Second resolve hits the local row, no catalog round trip.
	again, err := svc.ResolveBarcode(context.Background(), "8901234567890", userID)
	require.NoError(t, err)
	require.Equal(t, product.ID, again.ID)
	require.Equal(t, 1, lookup.calls)
}

func TestResolveBarcodeCatalogOutageYieldsStub(t *testing.T) {
	db := setupCatalogTestDB(t)
	lookup := &stubLookup{err: errors.New("dkapi down")}
	svc, err := NewService(NewRepository(db), lookup)
	require.NoError(t, err)

	product, err := svc.ResolveBarcode(context.Background(), "8901111111111", uuid.New())
	require.NoError(t, err)
	require.Equal(t, "8901111111111", product.Name)
	require.NotNil(t, product.GTIN)
	require.Equal(t, "8901111111111", *product.GTIN)
}

func TestResolveBarcodeWithoutLookupConfigured(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)), nil)
	require.NoError(t, err)

	product, err := svc.ResolveBarcode(context.Background(), "8902222222222", uuid.New())
	require.NoError(t, err)
	require.Equal(t, "8902222222222", product.Name)
}

func TestResolveDetectionCreatesThenReuses(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)), nil)
	require.NoError(t, err)

	detection := vision.Detection{
		Brand:           "Parle",
		Name:            "Parle-G Biscuits",
		Material:        "plastic",
		Description:     "Glucose biscuits",
		NetWeight:       80,
		MeasurementUnit: "g",
		Confidence:      0.9,
	}

	userID := uuid.New()
	first, err := svc.ResolveDetection(context.Background(), detection, userID)
	require.NoError(t, err)
	require.Nil(t, first.GTIN)
	require.NotNil(t, first.NetWeight)
	require.Equal(t, 80.0, *first.NetWeight)

	second, err := svc.ResolveDetection(context.Background(), detection, userID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestResolveDetectionDropsUnknownPlaceholders(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)), nil)
	require.NoError(t, err)

	product, err := svc.ResolveDetection(context.Background(), vision.Detection{
		Brand:    "Unknown",
		Name:     "Loose Bottle",
		Material: "Unknown",
	}, uuid.New())
	require.NoError(t, err)
	require.Nil(t, product.Brand)
	require.Nil(t, product.Material)
}

func TestResolveDetectionRequiresName(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)), nil)
	require.NoError(t, err)

	_, err = svc.ResolveDetection(context.Background(), vision.Detection{}, uuid.New())
	require.Error(t, err)
}

func TestGetProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)

	created, err := svc.ResolveBarcode(context.Background(), "8903333333333", uuid.New())
	require.NoError(t, err)

	loaded, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
}
