package datahub

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

// DiarioFetcher queries municipal official gazettes via Querido Diário
// (Open Knowledge Brasil).
type DiarioFetcher struct {
	baseURL string
	max     int
	client  *http.Client
	logger  arbor.ILogger
}

func NewDiarioFetcher(baseURL string, max int, client *http.Client, logger arbor.ILogger) *DiarioFetcher {
	return &DiarioFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		max:     max,
		client:  client,
		logger:  logger,
	}
}

var _ interfaces.SourceFetcher = (*DiarioFetcher)(nil)

func (f *DiarioFetcher) Name() models.Source {
	return models.SourceQueridoDiario
}

type diarioResponse struct {
	Results []struct {
		ID          interface{} `json:"id"`
		TerritoryID string      `json:"territory_id"`
		Title       string      `json:"title"`
		Content     string      `json:"content"`
		Excerpt     string      `json:"excerpt"`
		Date        string      `json:"date"`
		URL         string      `json:"url"`
		FileURL     string      `json:"file_url"`
	} `json:"results"`
}

func (f *DiarioFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	endpoint := f.baseURL + "/v1/publicacoes/"
	params := url.Values{}
	params.Set("querystring", query)
	params.Set("page_size", strconv.Itoa(f.max))

	f.logger.Debug().Str("endpoint", endpoint).Str("query", query).Msg("Fetching Querido Diário publications")

	var payload diarioResponse
	if err := getJSON(ctx, f.client, endpoint, params, &payload); err != nil {
		return nil, err
	}

	docs := make([]models.SourceDocument, 0, len(payload.Results))
	for _, item := range payload.Results {
		id := firstString(item.ID, item.TerritoryID)
		if id == "" {
			continue
		}

		title := item.Title
		if title == "" {
			title = "Publicação em Diário Oficial"
		}
		summary := item.Content
		if summary == "" {
			summary = item.Excerpt
		}
		link := item.URL
		if link == "" {
			link = item.FileURL
		}
		if link == "" {
			link = f.baseURL
		}

		docs = append(docs, models.SourceDocument{
			ID:      id,
			Title:   title,
			Summary: summary,
			Year:    parseYear(item.Date),
			Source:  models.SourceQueridoDiario,
			Link:    link,
		})
	}
	return docs, nil
}
