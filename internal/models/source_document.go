package models

// Source identifies which open-data backend produced a document.
type Source string

const (
	SourceCamara        Source = "camara"
	SourceSenado        Source = "senado"
	SourceQueridoDiario Source = "queridodiario"
	SourceBaseDosDados  Source = "basedosdados"
	SourceTSE           Source = "tse"
	SourceDataJud       Source = "datajud"
	SourceMock          Source = "mock"
)

// SourceDocument is the canonical record every fetcher normalizes into.
// ID is the dedup key: two documents with the same ID are the same document,
// and the aggregator keeps whichever arrived first.
type SourceDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Year    int    `json:"year"`
	Source  Source `json:"source"`
	Link    string `json:"link,omitempty"`
}

// AggregationResult holds merged fetcher output. Documents appear in
// completion order of the source fetches, deduplicated by ID.
type AggregationResult struct {
	Documents []SourceDocument `json:"documents"`
}
