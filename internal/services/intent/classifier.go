package intent

import (
	"regexp"
	"strings"

	"github.com/ternarybob/elo/internal/models"
)

// oraclePatterns match links or media-analysis requests in plain text.
// Messages carrying actual media skip these and go straight to Oracle.
var oraclePatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`\b(youtube\.com|youtu\.be)\b`),
	regexp.MustCompile(`\b(noticia|notícia|reportagem|materia|matéria)\b`),
	regexp.MustCompile(`\b(video|vídeo|foto|imagem|audio|áudio)\b`),
	regexp.MustCompile(`\b(analise|análise|resuma|resumo|explique este)\b`),
}

// legislativePatterns match congressional context: bill identifiers,
// chamber vocabulary, voting terms.
var legislativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(pl|pec|plp|pln|pdl)\s*\d+`),
	regexp.MustCompile(`\b(votação|votacao|voto|votou|votar)\b`),
	regexp.MustCompile(`\b(deputado|deputada|senador|senadora|parlamentar)\b`),
	regexp.MustCompile(`\b(camara|câmara|senado|congresso|legislativo)\b`),
	regexp.MustCompile(`\b(projeto|projetos|proposição|proposicao)\b`),
	regexp.MustCompile(`\b(tramitação|tramitacao|relator|comissão|comissao|ccj)\b`),
	regexp.MustCompile(`\b(projeto de lei|proposta|ementa|inteiro teor)\b`),
	regexp.MustCompile(`\b(sessão|sessao|plenário|plenario|pauta)\b`),
	regexp.MustCompile(`\b(partido|bancada|liderança|lideranca)\b`),
}

// legalBenefitPatterns match legal and benefit vocabulary. They gate the
// grounding source for the civic flow, not the intent itself: civic is
// already the default intent. Plain service questions ("como tirar o cpf?")
// stay on the static source.
var legalBenefitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(lei|leis|legislação|legislacao|norma|decreto|estatuto|código|codigo)\b`),
	regexp.MustCompile(`\b(direito|direitos|jurídico|juridico|justiça|justica)\b`),
	regexp.MustCompile(`\b(consumidor|procon)\b`),
	regexp.MustCompile(`\b(benefício|beneficio|auxílio|auxilio|bolsa família|bolsa familia)\b`),
	regexp.MustCompile(`\b(inss|aposentadoria|seguro desemprego|fgts|pis|pasep)\b`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText trims, collapses internal whitespace and lower-cases.
// The same normalization feeds classification and cache keys so that
// "  Qual  PL " and "qual pl" land on the same entry.
func NormalizeText(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.ToLower(cleaned)
}

// Classify resolves a message to its conversation flow. Classification is
// pure and deterministic: same message, same intent.
func Classify(msg models.NormalizedMessage) models.Intent {
	// Media messages always go to the oracle flow
	if msg.HasMedia() {
		return models.IntentOracle
	}

	normalized := NormalizeText(msg.Text)

	for _, pattern := range oraclePatterns {
		if pattern.MatchString(normalized) {
			return models.IntentOracle
		}
	}

	for _, pattern := range legislativePatterns {
		if pattern.MatchString(normalized) {
			return models.IntentLegislative
		}
	}

	// Civic is the default for everything else, explicit service vocabulary
	// or not
	return models.IntentCivic
}

// HasLegalBenefitKeyword reports whether the text touches laws, rights or
// social benefits. The civic flow uses it to decide between legislative
// grounding and the static fallback source.
func HasLegalBenefitKeyword(text string) bool {
	normalized := NormalizeText(text)
	for _, pattern := range legalBenefitPatterns {
		if pattern.MatchString(normalized) {
			return true
		}
	}
	return false
}
