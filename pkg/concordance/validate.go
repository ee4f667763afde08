package concordance

import (
	"fmt"

	"github.com/lexalign/concordance/pkg/models"
)

type pair struct {
	index int
	a     models.Paragraph
	b     models.Paragraph
}

// validate checks the two paragraph lists and pairs them up. Paired
// paragraphs share one number: a zero index takes its partner's number, or
// the 1-based position when both are zero.
func validate(a, b []models.Paragraph) ([]pair, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, models.NewValidationError("paragraphs", "both documents need at least one paragraph")
	}
	if len(a) != len(b) {
		return nil, models.NewValidationError(
			"paragraphs",
			fmt.Sprintf("paragraph counts differ: %d and %d", len(a), len(b)),
		)
	}

	pairs := make([]pair, len(a))
	last := 0
	for i := range a {
		pa, pb := a[i], b[i]
		if pa.Index < 0 || pb.Index < 0 {
			return nil, models.NewValidationError(
				"para_number",
				fmt.Sprintf("paragraph %d has a negative number", i+1),
			)
		}
		switch {
		case pa.Index == 0 && pb.Index == 0:
			pa.Index, pb.Index = i+1, i+1
		case pa.Index == 0:
			pa.Index = pb.Index
		case pb.Index == 0:
			pb.Index = pa.Index
		case pa.Index != pb.Index:
			return nil, models.NewValidationError(
				"para_number",
				fmt.Sprintf("paragraph %d is numbered %d and %d in the two documents", i+1, pa.Index, pb.Index),
			)
		}
		if pa.Index <= last {
			return nil, models.NewValidationError(
				"para_number",
				fmt.Sprintf("paragraph numbers must ascend, got %d after %d", pa.Index, last),
			)
		}
		last = pa.Index
		pairs[i] = pair{index: pa.Index, a: pa, b: pb}
	}
	return pairs, nil
}

func swapPairs(pairs []pair) []pair {
	out := make([]pair, len(pairs))
	for i, p := range pairs {
		out[i] = pair{index: p.index, a: p.b, b: p.a}
	}
	return out
}

// Validate reports whether a and b can be checked, without running anything.
func Validate(a, b []models.Paragraph) error {
	_, err := validate(a, b)
	return err
}
