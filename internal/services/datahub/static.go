package datahub

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

// TSEFetcher returns electoral reference documents. The TSE has no open
// query API for this data yet, so results are keyword-gated static records.
type TSEFetcher struct {
	logger arbor.ILogger
}

func NewTSEFetcher(logger arbor.ILogger) *TSEFetcher {
	return &TSEFetcher{logger: logger}
}

var _ interfaces.SourceFetcher = (*TSEFetcher)(nil)

func (f *TSEFetcher) Name() models.Source {
	return models.SourceTSE
}

func (f *TSEFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	if !strings.Contains(queryLower, "eleicao") && !strings.Contains(queryLower, "eleição") && !strings.Contains(queryLower, "urna") {
		return nil, nil
	}

	return []models.SourceDocument{{
		ID:      "TSE-2024-RES",
		Title:   "Calendário Eleitoral 2024",
		Summary: "Resolução TSE nº 23.738/2024 define datas das eleições municipais.",
		Year:    2024,
		Source:  models.SourceTSE,
		Link:    "https://www.tse.jus.br/",
	}}, nil
}

// DataJudFetcher returns judiciary reference documents, keyword-gated like
// the TSE fetcher.
type DataJudFetcher struct {
	logger arbor.ILogger
}

func NewDataJudFetcher(logger arbor.ILogger) *DataJudFetcher {
	return &DataJudFetcher{logger: logger}
}

var _ interfaces.SourceFetcher = (*DataJudFetcher)(nil)

func (f *DataJudFetcher) Name() models.Source {
	return models.SourceDataJud
}

func (f *DataJudFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	if !strings.Contains(queryLower, "processo") && !strings.Contains(queryLower, "justica") && !strings.Contains(queryLower, "justiça") {
		return nil, nil
	}

	return []models.SourceDocument{{
		ID:      "CNJ-METAS-2024",
		Title:   "Metas Nacionais do Poder Judiciário 2024",
		Summary: "Prioridade para julgamento de processos de violência doméstica e feminicídio.",
		Year:    2024,
		Source:  models.SourceDataJud,
		Link:    "https://www.cnj.jus.br/pesquisas-judiciarias/datajud/",
	}}, nil
}

// civicRightsDocuments are the fallback grounding set for the civic flow
// when no real source produced anything useful.
var civicRightsDocuments = []models.SourceDocument{
	{
		ID:      "MOCK-001",
		Title:   "Direitos básicos do cidadão",
		Summary: "Todo cidadão tem direito a atendimento e informação clara nos órgãos públicos.",
		Year:    2024,
		Source:  models.SourceMock,
	},
	{
		ID:      "MOCK-002",
		Title:   "Acesso à informação",
		Summary: "Lei de Acesso à Informação garante transparência e resposta ágil do governo.",
		Year:    2023,
		Source:  models.SourceMock,
	},
	{
		ID:      "MOCK-003",
		Title:   "Participação social",
		Summary: "Cidadãos podem propor ideias legislativas e participar de audiências públicas.",
		Year:    2022,
		Source:  models.SourceMock,
	},
}

// SearchCivicRights filters the static civic-rights set by the query,
// falling back to the whole set when nothing matches. Always returns at
// least one document.
func SearchCivicRights(query string) []models.SourceDocument {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if trimmed == "" {
		return civicRightsDocuments
	}

	var filtered []models.SourceDocument
	for _, doc := range civicRightsDocuments {
		if strings.Contains(strings.ToLower(doc.Summary), trimmed) {
			filtered = append(filtered, doc)
		}
	}
	if len(filtered) == 0 {
		return civicRightsDocuments
	}
	return filtered
}
