package testsupport

import (
	"context"
	"testing"

	"catalogd/internal/catalog"
	"catalogd/internal/config"
	"catalogd/internal/store"
)

// MustOpenStore opens the catalog store for the provided config, failing the
// test on error and closing the store during cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedMaster inserts a master record with the given fields and returns it.
func SeedMaster(t testing.TB, st *store.Store, fields catalog.Fields) *catalog.Record {
	t.Helper()

	record, err := st.CreateMaster(context.Background(), fields)
	if err != nil {
		t.Fatalf("seed master record: %v", err)
	}
	return record
}

// SeedDrugMaster inserts a typical drug master record. Callers override
// individual fields through the mutate function.
func SeedDrugMaster(t testing.TB, st *store.Store, mutate func(*catalog.Fields)) *catalog.Record {
	t.Helper()

	fields := catalog.Fields{
		ProductType:    "药品",
		ProductName:    "阿莫西林胶囊",
		Brand:          "联邦",
		Manufacturer:   "华北制药股份有限公司",
		ApprovalNumber: "国药准字H20003263",
		Specification:  "0.25g*24粒",
		DosageForm:     "胶囊剂",
	}
	if mutate != nil {
		mutate(&fields)
	}
	return SeedMaster(t, st, fields)
}
