package analysis

// Request is one question asked by an owner, optionally scoped to some datasets.
type Request struct {
	OwnerID    string   `json:"owner_id"`
	Question   string   `json:"question"`
	DatasetIDs []string `json:"dataset_ids,omitempty"`
}

// Result is the structured answer derived from the model reply.
// ReformulatedQuery is empty when the model did not supply one.
type Result struct {
	Message           string            `json:"message"`
	ReformulatedQuery string            `json:"reformulated_query,omitempty"`
	Insights          []string          `json:"insights"`
	Recommendations   []string          `json:"recommendations"`
	Metrics           map[string]string `json:"metrics"`
}

// Empty returns a result with non-nil collections.
func Empty() Result {
	return Result{
		Insights:        []string{},
		Recommendations: []string{},
		Metrics:         map[string]string{},
	}
}
