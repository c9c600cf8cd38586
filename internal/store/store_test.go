package store_test

import (
	"context"
	"fmt"
	"testing"

	"catalogd/internal/catalog"
	"catalogd/internal/store"
	"catalogd/internal/testsupport"
)

func TestCreateAndFetchMaster(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record, err := st.CreateMaster(ctx, catalog.Fields{
		ProductType:    "药品",
		ProductName:    "阿莫西林胶囊",
		ApprovalNumber: "国药准字H20003263",
		Manufacturer:   "华北制药股份有限公司",
	})
	if err != nil {
		t.Fatalf("CreateMaster failed: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record ID to be assigned")
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}

	fetched, err := st.MasterByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("MasterByID failed: %v", err)
	}
	if fetched == nil || fetched.ProductName != "阿莫西林胶囊" {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
}

func TestMasterByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	record, err := st.MasterByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("MasterByID failed: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil for missing record, got %#v", record)
	}
}

func TestCreateMasterRequiresProductType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.CreateMaster(context.Background(), catalog.Fields{ProductName: "无类型"}); err == nil {
		t.Fatal("expected error when product type missing")
	}
}

func TestUpdateMasterPersistsFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.SeedDrugMaster(t, st, nil)

	record.Specification = "0.5g*12粒"
	record.MAH = "联邦制药"
	if err := st.UpdateMaster(ctx, record); err != nil {
		t.Fatalf("UpdateMaster failed: %v", err)
	}

	fetched, err := st.MasterByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("MasterByID failed: %v", err)
	}
	if fetched.Specification != "0.5g*12粒" || fetched.MAH != "联邦制药" {
		t.Fatalf("update not persisted: %#v", fetched.Fields)
	}
}

func TestMastersByApprovalNumber(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seeded := testsupport.SeedDrugMaster(t, st, nil)
	testsupport.SeedDrugMaster(t, st, func(f *catalog.Fields) {
		f.ProductName = "头孢克肟片"
		f.ApprovalNumber = "国药准字H20040771"
	})

	records, err := st.MastersByApprovalNumber(ctx, seeded.ApprovalNumber)
	if err != nil {
		t.Fatalf("MastersByApprovalNumber failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != seeded.ID {
		t.Fatalf("expected exactly the seeded record, got %#v", records)
	}

	records, err = st.MastersByApprovalNumber(ctx, "")
	if err != nil {
		t.Fatalf("MastersByApprovalNumber with empty input failed: %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil for empty approval number, got %#v", records)
	}
}

func TestMasterPoolIsBounded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	for i := 0; i < 5; i++ {
		idx := i
		testsupport.SeedDrugMaster(t, st, func(f *catalog.Fields) {
			f.ProductName = fmt.Sprintf("测试药品%d", idx)
			f.ApprovalNumber = fmt.Sprintf("国药准字H2000000%d", idx)
		})
	}

	pool, err := st.MasterPool(context.Background(), 3)
	if err != nil {
		t.Fatalf("MasterPool failed: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("expected pool of 3, got %d", len(pool))
	}
	if pool[0].ProductName != "测试药品4" {
		t.Fatalf("expected newest record first, got %q", pool[0].ProductName)
	}
}

func TestListMastersFiltersByProductType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.SeedDrugMaster(t, st, nil)
	testsupport.SeedMaster(t, st, catalog.Fields{ProductType: "器械", ProductName: "医用外科口罩"})

	records, err := st.ListMasters(context.Background(), "器械", 0)
	if err != nil {
		t.Fatalf("ListMasters failed: %v", err)
	}
	if len(records) != 1 || records[0].ProductName != "医用外科口罩" {
		t.Fatalf("unexpected filtered listing: %#v", records)
	}

	all, err := st.ListMasters(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("ListMasters all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
}

func TestCreateAndListReviews(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	low, err := st.CreateReview(ctx, &store.ReviewItem{
		RunID:       "run-low",
		Priority:    30,
		ReasonsJSON: `[{"type":"FUSION_CONFLICT","message":"字段冲突"}]`,
		FieldsJSON:  `{"product_type":"药品"}`,
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	high, err := st.CreateReview(ctx, &store.ReviewItem{
		RunID:       "run-high",
		Priority:    70,
		ReasonsJSON: `[{"type":"VALIDATION_FAILED","message":"批准文号缺失"}]`,
		FieldsJSON:  `{"product_type":"药品"}`,
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	if low.Status != store.ReviewPending || high.Status != store.ReviewPending {
		t.Fatalf("expected new items pending, got %q / %q", low.Status, high.Status)
	}

	pending, err := st.ListReviews(ctx, store.ReviewPending, 0, false)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending items, got %d", len(pending))
	}
	if pending[0].ID != high.ID {
		t.Fatalf("expected highest priority first, got item %d", pending[0].ID)
	}

	ascending, err := st.ListReviews(ctx, store.ReviewPending, 0, true)
	if err != nil {
		t.Fatalf("ListReviews ascending failed: %v", err)
	}
	if ascending[0].ID != low.ID {
		t.Fatalf("expected lowest priority first, got item %d", ascending[0].ID)
	}

	count, err := st.PendingReviewCount(ctx)
	if err != nil {
		t.Fatalf("PendingReviewCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected pending count 2, got %d", count)
	}
}

func TestDecideReviewFirstWriterWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := st.CreateReview(ctx, &store.ReviewItem{
		RunID:       "run-1",
		Priority:    50,
		ReasonsJSON: `[]`,
		FieldsJSON:  `{"product_type":"药品"}`,
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	ok, err := st.DecideReview(ctx, item.ID, store.ReviewApproved, "reviewer-a", "确认无误")
	if err != nil {
		t.Fatalf("DecideReview failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first decision to apply")
	}

	ok, err = st.DecideReview(ctx, item.ID, store.ReviewRejected, "reviewer-b", "")
	if err != nil {
		t.Fatalf("second DecideReview failed: %v", err)
	}
	if ok {
		t.Fatal("expected second decision to be rejected")
	}

	fetched, err := st.ReviewByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ReviewByID failed: %v", err)
	}
	if fetched.Status != store.ReviewApproved || fetched.DecidedBy != "reviewer-a" {
		t.Fatalf("decision overwritten: %#v", fetched)
	}
	if fetched.Feedback != "确认无误" {
		t.Fatalf("expected feedback persisted, got %q", fetched.Feedback)
	}
}

func TestDecideReviewRejectsInvalidStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.DecideReview(context.Background(), 1, store.ReviewPending, "", ""); err == nil {
		t.Fatal("expected error for invalid decision status")
	}
}
