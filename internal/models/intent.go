package models

// Intent is the closed set of conversation flows. Dispatch over Intent is an
// exhaustive switch; adding a value here must fail compilation everywhere a
// switch handles it without a case.
type Intent int

const (
	// IntentCivic answers general civic-service questions (default flow)
	IntentCivic Intent = iota

	// IntentLegislative answers questions about bills, votes and congress activity
	IntentLegislative

	// IntentOracle analyzes user-supplied media or links
	IntentOracle
)

// String returns the flow name used in cache keys and logs.
func (i Intent) String() string {
	switch i {
	case IntentCivic:
		return "civic"
	case IntentLegislative:
		return "legislative"
	case IntentOracle:
		return "oracle"
	}
	return "unknown"
}
