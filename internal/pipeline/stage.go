package pipeline

// Stage identifies a step in the processing pipeline.
type Stage string

const (
	StageClassify      Stage = "classify"
	StageExtract       Stage = "extract"
	StageValidate      Stage = "validate"
	StageMatch         Stage = "match"
	StageFusion        Stage = "fusion"
	StageSave          Stage = "save"
	StageRequestReview Stage = "request_review"
)

// Terminal pseudo-stages. Reaching one ends the run.
const (
	stageCompleted   Stage = "completed"
	stageNeedsReview Stage = "needs_review"
)

// RunStatus is the externally visible state of a run.
type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusCompleted   RunStatus = "completed"
	StatusNeedsReview RunStatus = "needs_review"
	StatusFailed      RunStatus = "failed"
)

// Outcome is a stage's routing result. Match and fusion outcomes reuse the
// engine status values so routing reads directly off the engine output.
type Outcome string

const (
	OutcomeTypeKnown   Outcome = "type_known"
	OutcomeTypeUnknown Outcome = "type_unknown"
	OutcomeExtracted   Outcome = "extracted"
	OutcomeValidated   Outcome = "validated"
	OutcomeNeedsReview Outcome = "needs_review"

	OutcomeMatched        Outcome = "MATCH"
	OutcomeHighSimilarity Outcome = "HIGH_SIMILARITY"
	OutcomeCandidates     Outcome = "CANDIDATES"
	OutcomeNoMatch        Outcome = "NO_MATCH"

	OutcomeFused        Outcome = "FUSED"
	OutcomeFusionReview Outcome = "NEEDS_REVIEW"
	OutcomeNewProduct   Outcome = "NEW_PRODUCT"

	OutcomeSaved  Outcome = "saved"
	OutcomeQueued Outcome = "queued"
)

type transitionKey struct {
	stage   Stage
	outcome Outcome
}

// transitions is the static routing table. Every (stage, outcome) pair a
// stage can legally produce appears here; anything else is a pipeline bug.
var transitions = map[transitionKey]Stage{
	{StageClassify, OutcomeTypeKnown}:   StageExtract,
	{StageClassify, OutcomeTypeUnknown}: StageRequestReview,

	{StageExtract, OutcomeExtracted}: StageValidate,

	{StageValidate, OutcomeValidated}:   StageMatch,
	{StageValidate, OutcomeNeedsReview}: StageRequestReview,

	{StageMatch, OutcomeMatched}:        stageCompleted,
	{StageMatch, OutcomeHighSimilarity}: StageFusion,
	{StageMatch, OutcomeCandidates}:     StageFusion,
	{StageMatch, OutcomeNoMatch}:        StageRequestReview,

	{StageFusion, OutcomeFused}:        StageSave,
	{StageFusion, OutcomeFusionReview}: StageRequestReview,
	{StageFusion, OutcomeNewProduct}:   StageRequestReview,

	{StageSave, OutcomeSaved}: stageCompleted,

	{StageRequestReview, OutcomeQueued}: stageNeedsReview,
}

// nextStage resolves the successor for a stage outcome.
func nextStage(stage Stage, outcome Outcome) (Stage, bool) {
	next, ok := transitions[transitionKey{stage: stage, outcome: outcome}]
	return next, ok
}
