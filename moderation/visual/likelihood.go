package visual

import "strings"

// Likelihood is the classifier's six-rank confidence scale, totally ordered from
// Unknown (lowest, never blocks) up to VeryLikely.
type Likelihood int

const (
	LikelihoodUnknown Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

var likelihoodNames = map[Likelihood]string{
	LikelihoodUnknown: "UNKNOWN",
	VeryUnlikely:      "VERY_UNLIKELY",
	Unlikely:          "UNLIKELY",
	Possible:          "POSSIBLE",
	Likely:            "LIKELY",
	VeryLikely:        "VERY_LIKELY",
}

func (l Likelihood) String() string {
	if s, ok := likelihoodNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseLikelihood maps the classifier's wire name to a rank. Anything unrecognized
// parses as Unknown.
func ParseLikelihood(s string) Likelihood {
	for l, name := range likelihoodNames {
		if name == strings.ToUpper(s) {
			return l
		}
	}
	return LikelihoodUnknown
}

func (l Likelihood) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

func (l *Likelihood) UnmarshalJSON(raw []byte) error {
	*l = ParseLikelihood(strings.Trim(string(raw), `"`))
	return nil
}
