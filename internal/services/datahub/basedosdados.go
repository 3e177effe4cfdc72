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

// BaseDosDadosFetcher searches public datasets through the Base dos Dados
// CKAN API.
type BaseDosDadosFetcher struct {
	baseURL string
	max     int
	client  *http.Client
	logger  arbor.ILogger
}

func NewBaseDosDadosFetcher(baseURL string, max int, client *http.Client, logger arbor.ILogger) *BaseDosDadosFetcher {
	return &BaseDosDadosFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		max:     max,
		client:  client,
		logger:  logger,
	}
}

var _ interfaces.SourceFetcher = (*BaseDosDadosFetcher)(nil)

func (f *BaseDosDadosFetcher) Name() models.Source {
	return models.SourceBaseDosDados
}

type ckanResponse struct {
	Result struct {
		Results []struct {
			ID               string `json:"id"`
			Title            string `json:"title"`
			Name             string `json:"name"`
			Notes            string `json:"notes"`
			MetadataModified string `json:"metadata_modified"`
			MetadataCreated  string `json:"metadata_created"`
			URL              string `json:"url"`
			Resources        []struct {
				URL string `json:"url"`
			} `json:"resources"`
		} `json:"results"`
	} `json:"result"`
}

func (f *BaseDosDadosFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	endpoint := f.baseURL + "/package_search"
	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", strconv.Itoa(f.max))

	f.logger.Debug().Str("endpoint", endpoint).Str("query", query).Msg("Fetching Base dos Dados datasets")

	var payload ckanResponse
	if err := getJSON(ctx, f.client, endpoint, params, &payload); err != nil {
		return nil, err
	}

	docs := make([]models.SourceDocument, 0, len(payload.Result.Results))
	for _, item := range payload.Result.Results {
		if item.ID == "" {
			continue
		}

		title := item.Title
		if title == "" {
			title = item.Name
		}
		if title == "" {
			title = "Dataset público"
		}

		date := item.MetadataModified
		if date == "" {
			date = item.MetadataCreated
		}

		link := item.URL
		if link == "" && len(item.Resources) > 0 {
			link = item.Resources[0].URL
		}
		if link == "" {
			link = "https://basedosdados.org/"
		}

		docs = append(docs, models.SourceDocument{
			ID:      item.ID,
			Title:   title,
			Summary: item.Notes,
			Year:    parseYear(date),
			Source:  models.SourceBaseDosDados,
			Link:    link,
		})
	}
	return docs, nil
}
