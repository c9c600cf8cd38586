package fuse_test

import (
	"context"
	"errors"
	"testing"

	"catalogd/internal/catalog"
	"catalogd/internal/fuse"
	"catalogd/internal/match"
	"catalogd/internal/services"
)

func existingMaster() catalog.Fields {
	return catalog.Fields{
		ProductType:    "药品",
		ProductName:    "蒙脱石散",
		Manufacturer:   "湖北午时药业股份有限公司",
		ApprovalNumber: "H20240001",
		Specification:  "3g*10袋/盒",
	}
}

func TestFuseIdenticalRecordsNoConflicts(t *testing.T) {
	fused, conflicts := fuse.Fuse(existingMaster(), existingMaster())
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %#v", conflicts)
	}
	if fused != existingMaster() {
		t.Fatalf("expected unchanged fields, got %#v", fused)
	}
}

func TestFuseCriticalMismatchIsHardStop(t *testing.T) {
	incoming := existingMaster()
	incoming.ApprovalNumber = "H20999999"
	// A simultaneous important mismatch must not be reported.
	incoming.ProductName = "蒙脱石颗粒"

	fused, conflicts := fuse.Fuse(existingMaster(), incoming)
	if len(conflicts) != 1 {
		t.Fatalf("expected exactly one conflict, got %#v", conflicts)
	}
	c := conflicts[0]
	if c.Field != catalog.FieldApprovalNumber || c.Reason != fuse.ReasonCriticalMismatch {
		t.Fatalf("unexpected conflict: %#v", c)
	}
	if c.ExistingValue != "H20240001" || c.NewValue != "H20999999" {
		t.Fatalf("conflict values wrong: %#v", c)
	}
	if !fused.IsEmpty() {
		t.Fatalf("critical mismatch must not produce fused fields: %#v", fused)
	}
}

func TestFuseImportantMismatchAccumulatesExistingWins(t *testing.T) {
	incoming := existingMaster()
	incoming.ProductName = "蒙脱石颗粒"
	incoming.Specification = "6g*10袋/盒"

	fused, conflicts := fuse.Fuse(existingMaster(), incoming)
	if len(conflicts) != 2 {
		t.Fatalf("expected two conflicts, got %#v", conflicts)
	}
	for _, c := range conflicts {
		if c.Reason != fuse.ReasonImportantMismatch {
			t.Fatalf("unexpected reason: %#v", c)
		}
	}
	if fused.ProductName != "蒙脱石散" || fused.Specification != "3g*10袋/盒" {
		t.Fatalf("existing values must win: %#v", fused)
	}
}

func TestFuseImportantFillsEmptyExisting(t *testing.T) {
	existing := existingMaster()
	existing.Manufacturer = ""

	fused, conflicts := fuse.Fuse(existing, existingMaster())
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %#v", conflicts)
	}
	if fused.Manufacturer != "湖北午时药业股份有限公司" {
		t.Fatalf("expected manufacturer adopted, got %q", fused.Manufacturer)
	}
}

func TestFuseGeneralFieldsFillGapsOnly(t *testing.T) {
	existing := existingMaster()
	existing.Brand = "午时"

	incoming := existingMaster()
	incoming.Brand = "别的品牌"
	incoming.Barcode = "6901234567890"
	incoming.DosageForm = "散剂"

	fused, conflicts := fuse.Fuse(existing, incoming)
	if len(conflicts) != 0 {
		t.Fatalf("general fields must never conflict, got %#v", conflicts)
	}
	if fused.Brand != "午时" {
		t.Fatalf("existing general value must win, got %q", fused.Brand)
	}
	if fused.Barcode != "6901234567890" || fused.DosageForm != "散剂" {
		t.Fatalf("empty general fields must be filled: %#v", fused)
	}
}

func TestFuseIsIdempotent(t *testing.T) {
	incoming := existingMaster()
	incoming.Barcode = "6901234567890"

	once, conflicts := fuse.Fuse(existingMaster(), incoming)
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %#v", conflicts)
	}
	twice, conflicts := fuse.Fuse(once, incoming)
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts on replay: %#v", conflicts)
	}
	if once != twice {
		t.Fatalf("fusion not idempotent: %#v vs %#v", once, twice)
	}
}

type fakeMasterSource struct {
	records map[int64]*catalog.Record
	err     error
}

func (f *fakeMasterSource) MasterByID(_ context.Context, id int64) (*catalog.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func TestForOutcomeMatchIsAuthoritative(t *testing.T) {
	master := &catalog.Record{ID: 5, Fields: existingMaster()}
	engine := fuse.NewEngine(&fakeMasterSource{records: map[int64]*catalog.Record{5: master}}, nil)

	incoming := existingMaster()
	incoming.ProductName = "会被忽略的名称"
	result, err := engine.ForOutcome(context.Background(), match.Outcome{Status: match.StatusMatch, TargetID: 5}, incoming)
	if err != nil {
		t.Fatalf("ForOutcome failed: %v", err)
	}
	if result.Status != fuse.StatusFused || result.TargetID != 5 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result.Fused != master.Fields {
		t.Fatalf("MATCH must return the master's own fields: %#v", result.Fused)
	}
}

func TestForOutcomeHighSimilarityRunsFusion(t *testing.T) {
	master := &catalog.Record{ID: 9, Fields: existingMaster()}
	engine := fuse.NewEngine(&fakeMasterSource{records: map[int64]*catalog.Record{9: master}}, nil)

	incoming := existingMaster()
	incoming.ProductName = "蒙脱石颗粒"
	result, err := engine.ForOutcome(context.Background(), match.Outcome{Status: match.StatusHighSimilarity, TargetID: 9}, incoming)
	if err != nil {
		t.Fatalf("ForOutcome failed: %v", err)
	}
	if result.Status != fuse.StatusNeedsReview {
		t.Fatalf("expected NEEDS_REVIEW, got %s", result.Status)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Field != catalog.FieldProductName {
		t.Fatalf("unexpected conflicts: %#v", result.Conflicts)
	}
}

func TestForOutcomeNoTargetProposesNewProduct(t *testing.T) {
	engine := fuse.NewEngine(&fakeMasterSource{}, nil)

	incoming := existingMaster()
	result, err := engine.ForOutcome(context.Background(), match.Outcome{Status: match.StatusNoMatch}, incoming)
	if err != nil {
		t.Fatalf("ForOutcome failed: %v", err)
	}
	if result.Status != fuse.StatusNewProduct {
		t.Fatalf("expected NEW_PRODUCT, got %s", result.Status)
	}
	if result.Fused != incoming {
		t.Fatalf("NEW_PRODUCT must carry the incoming fields: %#v", result.Fused)
	}
}

func TestForOutcomeMissingMasterIsNotFound(t *testing.T) {
	engine := fuse.NewEngine(&fakeMasterSource{}, nil)

	_, err := engine.ForOutcome(context.Background(), match.Outcome{Status: match.StatusMatch, TargetID: 404}, existingMaster())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
