package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalogd/internal/catalog"
	"catalogd/internal/services"
	"catalogd/internal/services/llm"
)

// Completer is the subset of the LLM client the collaborators need.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service implements Classifier, Extractor, and Validator on top of the
// shared chat-completions client.
type Service struct {
	client Completer
}

// NewService builds the LLM-backed collaborator set.
func NewService(client Completer) *Service {
	return &Service{client: client}
}

// NewCollaborators wires a Service into the bundle the pipeline consumes.
func NewCollaborators(client Completer) Collaborators {
	svc := NewService(client)
	return Collaborators{Classifier: svc, Extractor: svc, Validator: svc}
}

const classifySystemPrompt = `你是一个商品分类专家。根据提供的商品信息，判断其最可能的商品类型。` +
	`类型选项为：[药品, 器械, 药妆, 保健品, 中药饮片, 普通商品]。` +
	`请重点关注"批准文号"、"注册证号"等关键词。` +
	`返回JSON：{"product_type": "<类型名称>"}。如果无法判断，返回"普通商品"。`

// Classify determines the product type for raw text. Unparseable or unknown
// answers fall back to the general type, matching upstream behavior.
func (s *Service) Classify(ctx context.Context, rawText string) (string, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return "", services.Wrap(services.ErrValidation, "classify", "", "raw text is empty", nil)
	}
	content, err := s.client.CompleteJSON(ctx, classifySystemPrompt, rawText)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "classify", "complete", "", err)
	}
	var parsed struct {
		ProductType string `json:"product_type"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return TypeGeneral, nil
	}
	productType := NormalizeType(parsed.ProductType)
	if !IsKnownType(productType) {
		return TypeGeneral, nil
	}
	return productType, nil
}

// Per-type guidance appended to the extraction prompt. Mirrors the upstream
// extractor split: each product type emphasizes its own identifier fields.
var extractorFocus = map[string]string{
	TypeDrug:          "药品必须提取批准文号（国药准字）、剂型、规格、生产企业、上市许可持有人(mah)。",
	TypeDevice:        "器械必须提取注册证号(approval_number)、产品技术要求编号、注册分类、生产企业。",
	TypeCosmeceutical: "药妆重点提取备案号(approval_number)、成分(main_ingredients)、执行标准、品牌。",
	TypeSupplement:    "保健品重点提取批准文号/备案号、主要原料(main_ingredients)、执行标准、规格。",
	TypeTCM:           "中药饮片重点提取执行标准、成分(main_ingredients)、规格、生产企业。",
	TypeGeneral:       "普通商品重点提取产品名称、品牌、条形码(barcode)、执行标准、规格。",
}

const extractSystemPromptHeader = `你是一个商品信息提取专家。从给定的商品文本中提取结构化字段，` +
	`返回一个JSON对象，键为：product_name, brand, manufacturer, approval_number, ` +
	`specification, barcode, mah, dosage_form, product_technical_requirements_number, ` +
	`registration_classification, main_ingredients, execution_standard。` +
	`文本中缺失的字段省略或置为空字符串，不要编造。`

// Extract pulls structured fields for the given product type.
func (s *Service) Extract(ctx context.Context, rawText, productType string) (catalog.Fields, error) {
	var fields catalog.Fields
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return fields, services.Wrap(services.ErrValidation, "extract", "", "raw text is empty", nil)
	}
	focus, ok := extractorFocus[productType]
	if !ok {
		return fields, services.Wrap(services.ErrValidation, "extract", "", fmt.Sprintf("unrecognized product type %q", productType), nil)
	}
	system := extractSystemPromptHeader + "商品类型为：" + productType + "。" + focus
	content, err := s.client.CompleteJSON(ctx, system, rawText)
	if err != nil {
		return fields, services.Wrap(services.ErrExternalTool, "extract", "complete", "", err)
	}
	if err := llm.DecodeJSON(content, &fields); err != nil {
		return fields, services.Wrap(services.ErrExternalTool, "extract", "parse payload", "", err)
	}
	fields.ProductType = productType
	fields.Normalize()
	return fields, nil
}

const validateSystemPrompt = `你是一个专业的药品信息验证专家。根据提供的商品类型和提取出的商品信息，` +
	`判断这些信息是否合理、完整和符合常识。` +
	`检查关键字段是否缺失或明显不合理；判断批准文号/注册证号格式是否符合该类型商品的常见规范` +
	`（例如药品应有国药准字，器械应有械注准）；判断各字段值之间是否存在明显的逻辑冲突。` +
	`验证通过时返回{"validation_status":"PASSED","validated_data":{...}}；` +
	`验证失败时返回{"validation_status":"FAILED","review_reason":"<具体原因>"}。` +
	`输出必须是严格的JSON。`

// Validate checks extracted fields. A FAILED verdict is not an error: it is
// reported through ValidationResult.ReviewReason and routes the run to review.
func (s *Service) Validate(ctx context.Context, fields catalog.Fields, productType string) (ValidationResult, error) {
	result := ValidationResult{Validated: fields}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "validate", "encode fields", "", err)
	}
	user := "商品类型为: " + productType + "。请验证以下提取出的商品信息：\n" + string(encoded)
	content, err := s.client.CompleteJSON(ctx, validateSystemPrompt, user)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "validate", "complete", "", err)
	}
	var parsed struct {
		ValidationStatus string         `json:"validation_status"`
		ReviewReason     string         `json:"review_reason"`
		ValidatedData    catalog.Fields `json:"validated_data"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "validate", "parse payload", "", err)
	}
	if strings.EqualFold(parsed.ValidationStatus, "PASSED") {
		if !parsed.ValidatedData.IsEmpty() {
			result.Validated = parsed.ValidatedData
			result.Validated.ProductType = productType
			result.Validated.Normalize()
		}
		return result, nil
	}
	result.ReviewReason = strings.TrimSpace(parsed.ReviewReason)
	if result.ReviewReason == "" {
		result.ReviewReason = "validator flagged the record without detail"
	}
	return result, nil
}
