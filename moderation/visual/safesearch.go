// Classification oracle adapter: wraps the external image-safety classifier and
// normalizes its five-category likelihood output into a single approve/reject verdict.
//
// The oracle failure policy is explicit. Production runs fail-closed: an unreachable
// classifier must not let unmoderated content publish silently. Fail-open (the
// behavior of the old backend placeholder, which approved everything by default) is
// kept available behind the same switch but has to be asked for.
package visual

import (
	"context"
	"fmt"
	"strings"
)

// BlockThreshold is the rank at or above which any single category rejects the image.
const BlockThreshold = Likely

// SafeSearchAnnotation is the structured classifier result: five independent
// likelihood categories.
type SafeSearchAnnotation struct {
	Adult    Likelihood `json:"adult"`
	Spoof    Likelihood `json:"spoof"`
	Medical  Likelihood `json:"medical"`
	Violence Likelihood `json:"violence"`
	Racy     Likelihood `json:"racy"`
}

// Flagged lists the categories at or above BlockThreshold.
func (a *SafeSearchAnnotation) Flagged() []string {
	var out []string
	for _, cat := range []struct {
		name string
		l    Likelihood
	}{
		{"adult", a.Adult},
		{"spoof", a.Spoof},
		{"medical", a.Medical},
		{"violence", a.Violence},
		{"racy", a.Racy},
	} {
		if cat.l >= BlockThreshold {
			out = append(out, fmt.Sprintf("%s=%s", cat.name, cat.l))
		}
	}
	return out
}

type Verdict struct {
	Approved bool
	Details  string
}

// Classifier is the oracle contract: annotate one stored image, identified by its
// gs:// URI.
type Classifier interface {
	Annotate(ctx context.Context, imageURI string) (*SafeSearchAnnotation, error)
}

type FailurePolicy int

const (
	// FailClosed treats an oracle failure as a rejection.
	FailClosed FailurePolicy = iota
	// FailOpen approves on oracle failure (or with no oracle configured at all).
	FailOpen
)

const (
	failClosedDetails = "error analyzing image"
	failOpenDetails   = "backend fallback filter (approved by default)"
)

// Moderate runs the oracle and applies the failure policy. The returned error is
// informational: when the oracle failed, the verdict already reflects the policy and
// the error carries the cause for logging. With a nil classifier the policy decides
// outright; that combination is only sane for FailOpen, which callers are expected to
// enforce at configuration time.
func Moderate(ctx context.Context, cls Classifier, imageURI string, policy FailurePolicy) (Verdict, error) {
	if cls == nil {
		if policy == FailOpen {
			return Verdict{Approved: true, Details: failOpenDetails}, nil
		}
		return Verdict{Approved: false, Details: failClosedDetails}, fmt.Errorf("no classifier configured")
	}
	anno, err := cls.Annotate(ctx, imageURI)
	if err != nil {
		if policy == FailOpen {
			return Verdict{Approved: true, Details: failOpenDetails}, err
		}
		return Verdict{Approved: false, Details: failClosedDetails}, err
	}
	if flagged := anno.Flagged(); len(flagged) > 0 {
		return Verdict{Approved: false, Details: strings.Join(flagged, ",")}, nil
	}
	return Verdict{Approved: true, Details: "safe-search clean"}, nil
}
