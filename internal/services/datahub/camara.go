package datahub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

// CamaraFetcher queries proposições at the Câmara dos Deputados open data API.
type CamaraFetcher struct {
	baseURL string
	max     int
	client  *http.Client
	logger  arbor.ILogger
}

func NewCamaraFetcher(baseURL string, max int, client *http.Client, logger arbor.ILogger) *CamaraFetcher {
	return &CamaraFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		max:     max,
		client:  client,
		logger:  logger,
	}
}

var _ interfaces.SourceFetcher = (*CamaraFetcher)(nil)

func (f *CamaraFetcher) Name() models.Source {
	return models.SourceCamara
}

type camaraResponse struct {
	Dados []struct {
		ID        int    `json:"id"`
		SiglaTipo string `json:"siglaTipo"`
		Ementa    string `json:"ementa"`
		Ano       int    `json:"ano"`
		URI       string `json:"uri"`
	} `json:"dados"`
}

func (f *CamaraFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	endpoint := f.baseURL + "/proposicoes"
	params := url.Values{}
	params.Set("keywords", query)
	params.Set("itens", strconv.Itoa(f.max))
	params.Set("ordem", "DESC")
	params.Set("ordenarPor", "id")

	f.logger.Debug().Str("endpoint", endpoint).Str("query", query).Msg("Fetching Câmara proposições")

	var payload camaraResponse
	if err := getJSON(ctx, f.client, endpoint, params, &payload); err != nil {
		return nil, err
	}

	docs := make([]models.SourceDocument, 0, len(payload.Dados))
	for _, item := range payload.Dados {
		title := item.Ementa
		if title == "" {
			title = item.SiglaTipo
		}
		if title == "" {
			title = "Proposição"
		}
		docs = append(docs, models.SourceDocument{
			ID:      fmt.Sprintf("%d", item.ID),
			Title:   title,
			Summary: item.Ementa,
			Year:    item.Ano,
			Source:  models.SourceCamara,
			Link:    item.URI,
		})
	}
	return docs, nil
}
