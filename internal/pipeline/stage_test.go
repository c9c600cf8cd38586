package pipeline

import "testing"

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		stage   Stage
		outcome Outcome
		next    Stage
	}{
		{StageClassify, OutcomeTypeKnown, StageExtract},
		{StageClassify, OutcomeTypeUnknown, StageRequestReview},
		{StageExtract, OutcomeExtracted, StageValidate},
		{StageValidate, OutcomeValidated, StageMatch},
		{StageValidate, OutcomeNeedsReview, StageRequestReview},
		{StageMatch, OutcomeMatched, stageCompleted},
		{StageMatch, OutcomeHighSimilarity, StageFusion},
		{StageMatch, OutcomeCandidates, StageFusion},
		{StageMatch, OutcomeNoMatch, StageRequestReview},
		{StageFusion, OutcomeFused, StageSave},
		{StageFusion, OutcomeFusionReview, StageRequestReview},
		{StageFusion, OutcomeNewProduct, StageRequestReview},
		{StageSave, OutcomeSaved, stageCompleted},
		{StageRequestReview, OutcomeQueued, stageNeedsReview},
	}
	for _, tc := range cases {
		next, ok := nextStage(tc.stage, tc.outcome)
		if !ok {
			t.Fatalf("missing transition for (%s, %s)", tc.stage, tc.outcome)
		}
		if next != tc.next {
			t.Fatalf("(%s, %s) routed to %s, want %s", tc.stage, tc.outcome, next, tc.next)
		}
	}
}

func TestTransitionTableRejectsUnknownPairs(t *testing.T) {
	if _, ok := nextStage(StageSave, OutcomeNoMatch); ok {
		t.Fatal("expected unknown pair to be rejected")
	}
	if _, ok := nextStage(StageClassify, OutcomeSaved); ok {
		t.Fatal("expected unknown pair to be rejected")
	}
}
