package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docintake/internal/llm"
)

type stubProvider struct {
	kind   llm.Kind
	reply  string
	err    error
	prompt string
}

func (p *stubProvider) Kind() llm.Kind  { return p.kind }
func (p *stubProvider) Model() string   { return "stub" }
func (p *stubProvider) Available() bool { return true }

func (p *stubProvider) Generate(_ context.Context, prompt string, _ *llm.Image) (string, error) {
	p.prompt = prompt
	return p.reply, p.err
}

type stubGenerator struct {
	reply, label string
	calls        int
}

func (g *stubGenerator) Generate(context.Context, string, *llm.Image) (string, string) {
	g.calls++
	return g.reply, g.label
}

func TestAnalyzerPrefersCallerProviders(t *testing.T) {
	broken := &stubProvider{kind: llm.KindGemini, err: errors.New("quota exceeded")}
	user := &stubProvider{kind: llm.KindOpenAI, reply: "SUMMARY\nA notice.\nURGENCY\nlow"}
	system := &stubGenerator{reply: "SUMMARY\nfrom system", label: "Gemini (System)"}
	a := NewAnalyzer(system, nil)

	res, err := a.Analyze(context.Background(), Input{
		Text:     "Sehr geehrter Herr Müller",
		Language: "de",
		FileName: "brief.png",
		AdHoc: []llm.AdHocProvider{
			{Provider: broken, Label: llm.UserLabel(llm.KindGemini)},
			{Provider: user, Label: llm.UserLabel(llm.KindOpenAI)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "OpenAI (User API Key)", res.LLMProvider)
	assert.Equal(t, "A notice.", res.Summary)
	assert.Equal(t, UrgencyLow, res.Urgency)
	assert.Zero(t, system.calls)
	assert.Contains(t, user.prompt, "Sehr geehrter Herr Müller")
	assert.Contains(t, user.prompt, "Datei: brief.png")
}

func TestAnalyzerFallsBackToSystem(t *testing.T) {
	system := &stubGenerator{reply: "DEMO MODE\nSUMMARY: demo", label: llm.LabelDemo}
	a := NewAnalyzer(system, nil)

	res, err := a.Analyze(context.Background(), Input{Text: "x", Language: "en", FileName: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, llm.LabelDemo, res.LLMProvider)
	assert.Equal(t, "demo", res.Summary)
	assert.Equal(t, 1, system.calls)
}

func TestBuildPromptPerLanguage(t *testing.T) {
	for lang, heading := range map[string]string{
		"en": "REQUIRED ACTIONS",
		"de": "WICHTIGE FRISTEN",
		"ru": "ВАЖНЫЕ СРОКИ",
		"uk": "ТЕРМІНОВІСТЬ",
		"fr": "SUMMARY",
	} {
		p, err := BuildPrompt(lang, "scan.pdf", "letter body")
		require.NoError(t, err)
		assert.Contains(t, p, heading, lang)
		assert.Contains(t, p, "scan.pdf", lang)
		assert.Contains(t, p, "letter body", lang)
	}
}

// Every heading the prompts ask for must be recognized by the formatter for
// the same language.
func TestPromptHeadingsAreRecognized(t *testing.T) {
	headings := map[string][]string{
		"en": {"SUMMARY", "SENDER", "DOCUMENT TYPE", "MAIN CONTENT", "REQUIRED ACTIONS", "DEADLINES", "CONSEQUENCES", "URGENCY", "RESPONSE TEMPLATE"},
		"de": {"ZUSAMMENFASSUNG", "ABSENDER", "DOKUMENTTYP", "HAUPTINHALT", "ERFORDERLICHE MASSNAHMEN", "WICHTIGE FRISTEN", "MÖGLICHE FOLGEN", "DRINGLICHKEIT", "ANTWORTVORLAGE"},
		"ru": {"КРАТКОЕ РЕЗЮМЕ", "ИНФОРМАЦИЯ ОБ ОТПРАВИТЕЛЕ", "ТИП ПИСЬМА", "ОСНОВНОЕ СОДЕРЖАНИЕ", "ТРЕБУЕМЫЕ ДЕЙСТВИЯ", "ВАЖНЫЕ СРОКИ", "ВОЗМОЖНЫЕ ПОСЛЕДСТВИЯ", "УРОВЕНЬ СРОЧНОСТИ", "ШАБЛОН ОТВЕТА"},
		"uk": {"КОРОТКИЙ ЗМІСТ", "ВІДПРАВНИК", "ТИП ЛИСТА", "ОСНОВНИЙ ЗМІСТ", "НЕОБХІДНІ ДІЇ", "ВАЖЛИВІ ТЕРМІНИ", "МОЖЛИВІ НАСЛІДКИ", "ТЕРМІНОВІСТЬ", "ШАБЛОН ВІДПОВІДІ"},
	}
	keys := []string{SectionSummary, SectionSender, SectionType, SectionContent, SectionActions, SectionDeadlines, SectionConsequences, SectionUrgency, SectionTemplate}

	for lang, hs := range headings {
		for i, h := range hs {
			res := Format(h+"\nbody line", lang)
			assert.Equal(t, "body line", res.Sections[keys[i]], "%s %q", lang, h)
		}
	}
}
