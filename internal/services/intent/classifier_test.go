package intent

import (
	"testing"

	"github.com/ternarybob/elo/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  models.NormalizedMessage
		want models.Intent
	}{
		{
			name: "audio message goes to oracle",
			msg:  models.NormalizedMessage{Type: models.MessageTypeAudio},
			want: models.IntentOracle,
		},
		{
			name: "image message goes to oracle",
			msg:  models.NormalizedMessage{Type: models.MessageTypeImage},
			want: models.IntentOracle,
		},
		{
			name: "text with media url goes to oracle",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "veja isso", MediaURL: "https://cdn.example/img.jpg"},
			want: models.IntentOracle,
		},
		{
			name: "url in text goes to oracle",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "analisa https://g1.globo.com/noticia"},
			want: models.IntentOracle,
		},
		{
			name: "youtube link goes to oracle",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "resume esse youtube.com vídeo"},
			want: models.IntentOracle,
		},
		{
			name: "bill id goes to legislative",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "o que diz a PL 2630?"},
			want: models.IntentLegislative,
		},
		{
			name: "bill id without space goes to legislative",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "pec10 foi aprovada?"},
			want: models.IntentLegislative,
		},
		{
			name: "senator mention goes to legislative",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "como votou o senador?"},
			want: models.IntentLegislative,
		},
		{
			name: "chamber vocabulary goes to legislative",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "qual a pauta do plenário hoje"},
			want: models.IntentLegislative,
		},
		{
			name: "civic service question stays civic",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "como tirar segunda via do CPF"},
			want: models.IntentCivic,
		},
		{
			name: "general question defaults to civic",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "bom dia, tudo bem?"},
			want: models.IntentCivic,
		},
		{
			name: "empty text defaults to civic",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: ""},
			want: models.IntentCivic,
		},
		{
			name: "oracle keyword wins over legislative keyword",
			msg:  models.NormalizedMessage{Type: models.MessageTypeText, Text: "resume a notícia sobre o senado"},
			want: models.IntentOracle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.msg)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	msg := models.NormalizedMessage{Type: models.MessageTypeText, Text: "Como votou a Câmara na PL 2630?"}
	first := Classify(msg)
	for i := 0; i < 10; i++ {
		if got := Classify(msg); got != first {
			t.Fatalf("Classification changed between runs: %v then %v", first, got)
		}
	}
}

func TestHasLegalBenefitKeyword(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"law keyword", "qual lei garante isso?", true},
		{"rights keyword", "quais são meus direitos?", true},
		{"benefit keyword", "consulta do bolsa família", true},
		{"accent-free spelling", "problemas com auxilio", true},
		{"retirement keyword", "como pedir aposentadoria no INSS", true},
		{"plain service question", "como tirar o CPF?", false},
		{"generic question", "me conta uma curiosidade", false},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasLegalBenefitKeyword(tt.text); got != tt.want {
				t.Errorf("HasLegalBenefitKeyword(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  Qual   PL  ", "qual pl"},
		{"lowercases", "CPF", "cpf"},
		{"keeps accents", "Saúde", "saúde"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
