package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishAnalysis = `**SUMMARY**
The tax office requests payment of an outstanding invoice.

## SENDER
Finanzamt Berlin-Mitte

DOCUMENT TYPE: Payment demand

MAIN CONTENT
Invoice no. 12345 is overdue.
1.
The amount is 250 EUR.

REQUIRED ACTIONS
Transfer the amount.

DEADLINES: Payment is due on 01.05.2024.
A reminder follows after 2024-05-15 and again on 15.05.2024.

CONSEQUENCES
Late fees.

URGENCY
HIGH

RESPONSE TEMPLATE
Sehr geehrte Damen und Herren, ...`

func TestFormatEnglishSections(t *testing.T) {
	res := Format(englishAnalysis, "en")

	assert.Equal(t, "The tax office requests payment of an outstanding invoice.", res.Summary)
	assert.Equal(t, "Finanzamt Berlin-Mitte", res.Sender)
	assert.Equal(t, "Payment demand", res.DocumentType)
	assert.Equal(t, "Invoice no. 12345 is overdue.\nThe amount is 250 EUR.", res.KeyContent)
	assert.Contains(t, res.Deadlines, "01.05.2024")
	assert.Equal(t, []string{"01.05.2024", "2024-05-15", "15.05.2024"}, res.Dates)
	assert.Equal(t, UrgencyHigh, res.Urgency)
	assert.Equal(t, "Sehr geehrte Damen und Herren, ...", res.ResponseTemplate)

	require.NotEmpty(t, res.DisplaySections)
	assert.Equal(t, SectionSummary, res.DisplaySections[0].Key)
	for i := 1; i < len(res.DisplaySections); i++ {
		assert.Less(t, res.DisplaySections[i-1].Priority, res.DisplaySections[i].Priority)
	}
	assert.NotContains(t, res.FullAnalysis, "*")
	assert.NotContains(t, res.FullAnalysis, "#")
	assert.Contains(t, res.FullAnalysis, "Important deadlines\n"+strings.Repeat("─", 40))
}

func TestFormatRussianWithEnglishFallbackKeywords(t *testing.T) {
	raw := `КРАТКОЕ РЕЗЮМЕ
Письмо от Jobcenter о встрече.

ИНФОРМАЦИЯ ОБ ОТПРАВИТЕЛЕ
Jobcenter Köln

ВАЖНЫЕ СРОКИ
Встреча 12.03.2025 в 10:00.

URGENCY
medium`

	res := Format(raw, "ru")
	assert.Equal(t, "Письмо от Jobcenter о встрече.", res.Summary)
	assert.Equal(t, "Jobcenter Köln", res.Sender)
	assert.Equal(t, []string{"12.03.2025"}, res.Dates)
	assert.Equal(t, UrgencyMedium, res.Urgency)
	assert.Equal(t, "Уровень срочности", res.DisplaySections[len(res.DisplaySections)-1].Title)
}

func TestFormatWithoutHeaders(t *testing.T) {
	res := Format("Just some free text from a model that ignored the instructions.", "de")

	assert.Equal(t, "Just some free text from a model that ignored the instructions.", res.Summary)
	assert.Equal(t, UrgencyMedium, res.Urgency)
	assert.Empty(t, res.DisplaySections)
	assert.Empty(t, res.Dates)
}

func TestFormatLongLinesAreNeverHeaders(t *testing.T) {
	long := "This sentence mentions the summary and the sender but is far too long to be treated as a heading line."
	res := Format("SUMMARY\n"+long, "en")
	assert.Equal(t, long, res.Summary)
	assert.Empty(t, res.Sender)
}

func TestClassifyUrgency(t *testing.T) {
	tests := []struct {
		in   string
		want Urgency
	}{
		{"", UrgencyMedium},
		{"HIGH, respond immediately", UrgencyHigh},
		{"not urgent", UrgencyLow},
		{"НИЗКИЙ", UrgencyLow},
		{"Dringlichkeit: hoch", UrgencyHigh},
		{"несрочно, может подождать", UrgencyLow},
		{"СРЕДНИЙ", UrgencyMedium},
		{"висока", UrgencyHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyUrgency(tt.in), tt.in)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "de", NormalizeLanguage("de-DE"))
	assert.Equal(t, "uk", NormalizeLanguage("ua"))
	assert.Equal(t, "en", NormalizeLanguage("fr"))
	assert.Equal(t, "ru", NormalizeLanguage(" RU "))
}
