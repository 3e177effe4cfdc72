package answer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/elo/internal/models"
)

// FallbackMessage is returned when no model response could be produced.
// It is never cached so the next attempt goes back to the provider.
const FallbackMessage = "Tive um problema para acessar o modelo de IA agora. Tente de novo em alguns instantes."

// OracleContext replaces federated grounding in the oracle flow, where the
// answer must be drawn from the media the user sent.
const OracleContext = "(Modo Oráculo: Responda com base no arquivo/áudio/imagem enviado pelo usuário)"

const baseSystemPrompt = `Você é o ELO – Assistente Cidadão, um assistente virtual brasileiro que ajuda pessoas a entender documentos, leis e serviços públicos.

Regras:
- Responda sempre em português do Brasil, com linguagem simples e direta.
- Seja acolhedor e respeitoso. Evite jargão jurídico; quando usar um termo técnico, explique o que significa.
- Use as informações de contexto fornecidas quando existirem. Se o contexto não cobrir a pergunta, diga o que você sabe de forma geral e sugira onde a pessoa pode confirmar.
- Nunca invente números de lei, prazos ou valores. Se não tiver certeza, diga que não tem certeza.
- Mantenha as respostas curtas o suficiente para leitura em um celular.`

var flowInstructions = map[string]string{
	models.IntentCivic.String():       "Foco da conversa: direitos do cidadão e serviços públicos (documentos, saúde, benefícios, educação, impostos). Oriente passo a passo quando a pessoa perguntar como fazer algo.",
	models.IntentLegislative.String(): "Foco da conversa: atividade legislativa (projetos de lei, votações, parlamentares, tramitação). Quando houver proposições no contexto, cite a identificação e o ano de cada uma.",
	models.IntentOracle.String():      "Foco da conversa: analisar o conteúdo que o usuário enviou (link, áudio, imagem ou arquivo). Resuma, explique e responda perguntas sobre esse conteúdo.",
}

// SystemPromptFor composes the base identity with the per-flow instruction.
func SystemPromptFor(flow string) string {
	instruction, ok := flowInstructions[flow]
	if !ok {
		return baseSystemPrompt
	}
	return baseSystemPrompt + "\n\n" + instruction
}

// buildLegislativeContext renders aggregated documents as context lines for
// the model, one per document, capped at maxDocs.
func buildLegislativeContext(docs []models.SourceDocument, maxDocs, summaryLimit int) string {
	if len(docs) == 0 {
		return ""
	}
	if maxDocs > 0 && len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}

	var sb strings.Builder
	sb.WriteString("Informações de contexto (fontes oficiais):\n")
	for _, doc := range docs {
		summary := shortenSummary(doc.Summary, summaryLimit)
		sb.WriteString(fmt.Sprintf("- %s (%d): %s. %s\n", doc.ID, doc.Year, doc.Title, summary))
	}
	return sb.String()
}

func shortenSummary(summary string, limit int) string {
	if limit <= 0 || len(summary) <= limit {
		return summary
	}
	runes := []rune(summary)
	if len(runes) <= limit {
		return summary
	}
	return string(runes[:limit]) + "..."
}
