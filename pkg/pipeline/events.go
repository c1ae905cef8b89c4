package pipeline

// Event is one progress item streamed to the caller while a scan runs.
// Consumers key off Type; Data carries the freshly gathered piece.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Event types, in roughly the order a full scan emits them. Exactly one of
// EventComplete or EventError terminates every scan.
const (
	EventChain                = "chain"
	EventMarket               = "market"
	EventFundamentals         = "fundamentals"
	EventSecurity             = "security"
	EventHolders              = "holders"
	EventProfiles             = "profiles"
	EventPosts                = "posts"
	EventWebsite              = "website"
	EventSentiment            = "sentiment"
	EventScore                = "score"
	EventNarrative            = "narrative"
	EventFundamentalsAnalysis = "fundamentals_analysis"
	EventSummary              = "summary"
	EventHype                 = "hype"
	EventComplete             = "complete"
	EventError                = "error"
)

// EmitFunc receives progress events. The pipeline serializes calls, so
// implementations need no locking of their own.
type EmitFunc func(Event)
