package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section keys in the order the prompt asks for them.
const (
	SectionIntro        = "intro"
	SectionSummary      = "summary"
	SectionSender       = "sender"
	SectionType         = "type"
	SectionContent      = "content"
	SectionActions      = "actions"
	SectionDeadlines    = "deadlines"
	SectionConsequences = "consequences"
	SectionUrgency      = "urgency"
	SectionTemplate     = "template"
)

// maxHeaderRunes caps how long a header line can be. Longer lines are always
// body text.
const maxHeaderRunes = 80

type sectionKeywords struct {
	key      string
	keywords []string
}

// Keyword tables are matched as lowercase substrings, first section wins.
var keywordTables = map[string][]sectionKeywords{
	LangEnglish: {
		{SectionSummary, []string{"summary"}},
		{SectionSender, []string{"sender"}},
		{SectionType, []string{"type"}},
		{SectionContent, []string{"content", "main points"}},
		{SectionActions, []string{"action", "to do"}},
		{SectionDeadlines, []string{"deadline", "due date", "dates"}},
		{SectionConsequences, []string{"consequence"}},
		{SectionUrgency, []string{"urgency", "priority"}},
		{SectionTemplate, []string{"template"}},
	},
	LangGerman: {
		{SectionSummary, []string{"zusammenfassung"}},
		{SectionSender, []string{"absender"}},
		{SectionType, []string{"dokumenttyp", "art des"}},
		{SectionContent, []string{"inhalt"}},
		{SectionActions, []string{"erforderlich", "maßnahmen", "massnahmen"}},
		{SectionDeadlines, []string{"frist", "termin"}},
		{SectionConsequences, []string{"folgen", "konsequenz"}},
		{SectionUrgency, []string{"dringlichkeit", "priorität"}},
		{SectionTemplate, []string{"vorlage", "antwortentwurf"}},
	},
	LangRussian: {
		{SectionSummary, []string{"резюме", "краткое"}},
		{SectionSender, []string{"отправител", "от кого"}},
		{SectionType, []string{"тип письма", "тип документа", "категория"}},
		{SectionContent, []string{"содержание"}},
		{SectionActions, []string{"действия", "требуемые"}},
		{SectionDeadlines, []string{"срок", "дата"}},
		{SectionConsequences, []string{"последстви"}},
		{SectionUrgency, []string{"срочност", "приоритет", "важность"}},
		{SectionTemplate, []string{"шаблон"}},
	},
	LangUkrainian: {
		{SectionSummary, []string{"короткий зміст", "резюме"}},
		{SectionSender, []string{"відправник"}},
		{SectionType, []string{"тип листа", "тип документа"}},
		{SectionContent, []string{"зміст"}},
		{SectionActions, []string{"необхідні дії", "дії"}},
		{SectionDeadlines, []string{"терміни", "строки", "дати"}},
		{SectionConsequences, []string{"наслідки"}},
		{SectionUrgency, []string{"терміновість", "пріоритет"}},
		{SectionTemplate, []string{"шаблон"}},
	},
}

type displayMeta struct {
	priority int
	titles   map[string]string
}

var displayConfig = map[string]displayMeta{
	SectionSummary:      {1, map[string]string{LangEnglish: "Summary", LangGerman: "Zusammenfassung", LangRussian: "Краткое резюме", LangUkrainian: "Короткий зміст"}},
	SectionSender:       {2, map[string]string{LangEnglish: "Sender", LangGerman: "Absender", LangRussian: "Отправитель", LangUkrainian: "Відправник"}},
	SectionType:         {3, map[string]string{LangEnglish: "Document type", LangGerman: "Dokumenttyp", LangRussian: "Тип документа", LangUkrainian: "Тип документа"}},
	SectionContent:      {4, map[string]string{LangEnglish: "Main content", LangGerman: "Hauptinhalt", LangRussian: "Основное содержание", LangUkrainian: "Основний зміст"}},
	SectionActions:      {5, map[string]string{LangEnglish: "Required actions", LangGerman: "Erforderliche Maßnahmen", LangRussian: "Требуемые действия", LangUkrainian: "Необхідні дії"}},
	SectionDeadlines:    {6, map[string]string{LangEnglish: "Important deadlines", LangGerman: "Wichtige Fristen", LangRussian: "Важные сроки", LangUkrainian: "Важливі терміни"}},
	SectionConsequences: {7, map[string]string{LangEnglish: "Possible consequences", LangGerman: "Mögliche Folgen", LangRussian: "Возможные последствия", LangUkrainian: "Можливі наслідки"}},
	SectionUrgency:      {8, map[string]string{LangEnglish: "Urgency", LangGerman: "Dringlichkeit", LangRussian: "Уровень срочности", LangUkrainian: "Терміновість"}},
	SectionTemplate:     {9, map[string]string{LangEnglish: "Response template", LangGerman: "Antwortvorlage", LangRussian: "Шаблон ответа", LangUkrainian: "Шаблон відповіді"}},
}

// DisplaySection is one section prepared for the client.
type DisplaySection struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	Content  string `json:"content"`
}

// Urgency is the coarse classification of the urgency section.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Result is the structured analysis returned to the caller and persisted.
type Result struct {
	Summary          string            `json:"summary"`
	Sender           string            `json:"sender"`
	DocumentType     string            `json:"document_type"`
	KeyContent       string            `json:"key_content"`
	RequiredActions  string            `json:"required_actions"`
	Deadlines        string            `json:"deadlines"`
	Consequences     string            `json:"consequences"`
	Urgency          Urgency           `json:"urgency"`
	Dates            []string          `json:"dates"`
	ResponseTemplate string            `json:"response_template"`
	Sections         map[string]string `json:"sections"`
	DisplaySections  []DisplaySection  `json:"display_sections"`
	FullAnalysis     string            `json:"full_analysis"`
	LLMProvider      string            `json:"llm_provider"`
	RawText          string            `json:"raw_text"`
}

// Format segments raw model output into labeled sections by scanning for
// header keywords. It never fails; text before the first header lands in the
// intro section.
func Format(raw, lang string) *Result {
	lang = NormalizeLanguage(lang)
	tables := keywordTables[lang]
	if lang != LangEnglish {
		tables = append(append([]sectionKeywords(nil), tables...), keywordTables[LangEnglish]...)
	}

	cleaned := strings.NewReplacer("*", "", "#", "").Replace(raw)

	sections := make(map[string][]string)
	var order []string
	current := SectionIntro
	add := func(line string) {
		if _, seen := sections[current]; !seen {
			order = append(order, current)
		}
		sections[current] = append(sections[current], line)
	}

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if key, rest, ok := matchHeader(line, tables); ok {
			current = key
			if rest != "" {
				add(rest)
			}
			continue
		}
		if isNumberFragment(line) {
			continue
		}
		add(line)
	}

	joined := make(map[string]string, len(sections))
	for k, lines := range sections {
		joined[k] = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	summary := joined[SectionSummary]
	if summary == "" {
		summary = joined[SectionIntro]
	}

	return &Result{
		Summary:          summary,
		Sender:           joined[SectionSender],
		DocumentType:     joined[SectionType],
		KeyContent:       joined[SectionContent],
		RequiredActions:  joined[SectionActions],
		Deadlines:        joined[SectionDeadlines],
		Consequences:     joined[SectionConsequences],
		Urgency:          ClassifyUrgency(joined[SectionUrgency]),
		Dates:            ExtractDates(joined[SectionDeadlines]),
		ResponseTemplate: joined[SectionTemplate],
		Sections:         joined,
		DisplaySections:  displaySections(joined, lang),
		FullAnalysis:     fullText(joined, order, lang),
	}
}

// matchHeader reports whether line is a section header. Only the part before
// the first colon is searched; the remainder is returned as section content.
func matchHeader(line string, tables []sectionKeywords) (string, string, bool) {
	if utf8.RuneCountInString(line) >= maxHeaderRunes {
		return "", "", false
	}
	head, rest := line, ""
	if i := strings.Index(line, ":"); i >= 0 {
		head, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	lower := strings.ToLower(head)
	for _, t := range tables {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.key, rest, true
			}
		}
	}
	return "", "", false
}

// isNumberFragment drops stray list markers such as "1." or "2)".
func isNumberFragment(line string) bool {
	if utf8.RuneCountInString(line) > 5 {
		return false
	}
	for i, r := range line {
		if i >= 3 {
			break
		}
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var (
	negatedUrgency = []string{"not urgent", "nicht dringend", "несрочно", "не срочно", "не терміново"}
	highUrgency    = []string{"high", "urgent", "critical", "immediately", "hoch", "dringend", "sofort", "высок", "срочно", "критич", "немедленно", "висок", "терміново", "негайно"}
	lowUrgency     = []string{"low", "niedrig", "низк", "может подождать", "низьк"}
)

// ClassifyUrgency maps the urgency section onto high, medium or low. Empty or
// unrecognized text is medium.
func ClassifyUrgency(text string) Urgency {
	lower := strings.ToLower(text)
	if lower == "" {
		return UrgencyMedium
	}
	for _, kw := range negatedUrgency {
		if strings.Contains(lower, kw) {
			return UrgencyLow
		}
	}
	for _, kw := range highUrgency {
		if strings.Contains(lower, kw) {
			return UrgencyHigh
		}
	}
	for _, kw := range lowUrgency {
		if strings.Contains(lower, kw) {
			return UrgencyLow
		}
	}
	return UrgencyMedium
}

var datePattern = regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2})\b`)

// ExtractDates returns the distinct dates in text in order of appearance.
func ExtractDates(text string) []string {
	matches := datePattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func displaySections(sections map[string]string, lang string) []DisplaySection {
	var out []DisplaySection
	for key, content := range sections {
		meta, ok := displayConfig[key]
		if !ok || content == "" {
			continue
		}
		out = append(out, DisplaySection{Key: key, Title: meta.titles[lang], Priority: meta.priority, Content: content})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func fullText(sections map[string]string, order []string, lang string) string {
	var b strings.Builder
	for _, key := range order {
		content := sections[key]
		if content == "" {
			continue
		}
		title := "Overview"
		if meta, ok := displayConfig[key]; ok {
			title = meta.titles[lang]
		}
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", 40))
		b.WriteString("\n")
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
