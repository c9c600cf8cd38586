package extraction_test

import (
	"context"
	"errors"
	"testing"

	"catalogd/internal/catalog"
	"catalogd/internal/extraction"
	"catalogd/internal/services"
)

type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system = systemPrompt
	f.user = userPrompt
	return f.response, f.err
}

func TestClassifyReturnsKnownType(t *testing.T) {
	fake := &fakeCompleter{response: `{"product_type": "药品"}`}
	svc := extraction.NewService(fake)

	got, err := svc.Classify(context.Background(), "阿莫西林胶囊 批准文号: 国药准字H20003263")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != extraction.TypeDrug {
		t.Fatalf("expected %q, got %q", extraction.TypeDrug, got)
	}
}

func TestClassifyFallsBackOnUnknownType(t *testing.T) {
	fake := &fakeCompleter{response: `{"product_type": "零食"}`}
	svc := extraction.NewService(fake)

	got, err := svc.Classify(context.Background(), "某商品")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != extraction.TypeGeneral {
		t.Fatalf("expected fallback to %q, got %q", extraction.TypeGeneral, got)
	}
}

func TestClassifyFallsBackOnGarbagePayload(t *testing.T) {
	fake := &fakeCompleter{response: "not json at all"}
	svc := extraction.NewService(fake)

	got, err := svc.Classify(context.Background(), "某商品")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got != extraction.TypeGeneral {
		t.Fatalf("expected fallback to %q, got %q", extraction.TypeGeneral, got)
	}
}

func TestClassifyRejectsEmptyText(t *testing.T) {
	svc := extraction.NewService(&fakeCompleter{})
	if _, err := svc.Classify(context.Background(), "   "); !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractSetsProductType(t *testing.T) {
	fake := &fakeCompleter{response: `{"product_name": " 阿莫西林胶囊 ", "approval_number": "国药准字H20003263", "manufacturer": "华北制药"}`}
	svc := extraction.NewService(fake)

	fields, err := svc.Extract(context.Background(), "阿莫西林胶囊...", extraction.TypeDrug)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if fields.ProductType != extraction.TypeDrug {
		t.Fatalf("expected product type %q, got %q", extraction.TypeDrug, fields.ProductType)
	}
	if fields.ProductName != "阿莫西林胶囊" {
		t.Fatalf("expected trimmed product name, got %q", fields.ProductName)
	}
	if fields.ApprovalNumber != "国药准字H20003263" {
		t.Fatalf("unexpected approval number %q", fields.ApprovalNumber)
	}
}

func TestExtractRejectsUnknownProductType(t *testing.T) {
	svc := extraction.NewService(&fakeCompleter{})
	if _, err := svc.Extract(context.Background(), "text", "不存在的类型"); !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractPropagatesClientFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("boom")}
	svc := extraction.NewService(fake)
	if _, err := svc.Extract(context.Background(), "text", extraction.TypeDrug); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestValidatePassedKeepsValidatedData(t *testing.T) {
	fake := &fakeCompleter{response: `{"validation_status":"PASSED","validated_data":{"product_name":"阿莫西林胶囊","approval_number":"国药准字H20003263"}}`}
	svc := extraction.NewService(fake)

	fields := catalog.Fields{ProductType: extraction.TypeDrug, ProductName: "阿莫西林"}
	result, err := svc.Validate(context.Background(), fields, extraction.TypeDrug)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.ReviewReason != "" {
		t.Fatalf("expected no review reason, got %q", result.ReviewReason)
	}
	if result.Validated.ProductName != "阿莫西林胶囊" {
		t.Fatalf("expected validator corrections to win, got %q", result.Validated.ProductName)
	}
	if result.Validated.ProductType != extraction.TypeDrug {
		t.Fatalf("product type must survive validation, got %q", result.Validated.ProductType)
	}
}

func TestValidateFailedCarriesReason(t *testing.T) {
	fake := &fakeCompleter{response: `{"validation_status":"FAILED","review_reason":"批准文号格式不符合药品规范"}`}
	svc := extraction.NewService(fake)

	result, err := svc.Validate(context.Background(), catalog.Fields{ProductType: extraction.TypeDrug}, extraction.TypeDrug)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.ReviewReason != "批准文号格式不符合药品规范" {
		t.Fatalf("unexpected review reason %q", result.ReviewReason)
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"药品":     extraction.TypeDrug,
		" 药品。":  extraction.TypeDrug,
		"器械： ":  extraction.TypeDevice,
		"":      "",
	}
	for input, want := range cases {
		if got := extraction.NormalizeType(input); got != want {
			t.Fatalf("extraction.NormalizeType(%q) = %q, want %q", input, got, want)
		}
	}
}
