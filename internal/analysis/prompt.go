package analysis

import (
	"strings"

	"github.com/nikhilbhutani/docintake/internal/prompt"
)

// Supported analysis languages. Anything else falls back to English.
const (
	LangEnglish   = "en"
	LangGerman    = "de"
	LangRussian   = "ru"
	LangUkrainian = "uk"
)

// NormalizeLanguage maps a caller language tag onto a supported language.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	switch lang {
	case LangEnglish, LangGerman, LangRussian, LangUkrainian:
		return lang
	case "ua":
		return LangUkrainian
	}
	return LangEnglish
}

var templates = map[string]*prompt.Template{
	LangEnglish: prompt.New("analysis-en", `Analyze this German official letter and provide a structured response in English.

Use exactly the following section headings, in this order, and do NOT use formatting characters such as * or #:

SUMMARY
Describe the content of the letter in 2-3 sentences.

SENDER
Who sent the letter (organisation, department, official).

DOCUMENT TYPE
The type of document (notice, demand, invitation, certificate, ...).

MAIN CONTENT
What the letter says in detail and which information it conveys.

REQUIRED ACTIONS
The concrete actions the recipient has to take.

DEADLINES
Every date, deadline and time frame mentioned, written as DD.MM.YYYY.

CONSEQUENCES
What may happen if the required actions are not taken.

URGENCY
Rate the urgency as LOW, MEDIUM or HIGH.

RESPONSE TEMPLATE
If appropriate, a polite reply template in German.

File: {{filename}}

Letter text:
{{text}}`),

	LangGerman: prompt.New("analysis-de", `Analysieren Sie diesen deutschen offiziellen Brief und geben Sie eine strukturierte Antwort auf Deutsch.

Verwenden Sie genau die folgenden Überschriften in dieser Reihenfolge und KEINE Formatierungszeichen wie * oder #:

ZUSAMMENFASSUNG
Beschreiben Sie den Inhalt des Briefes in 2-3 Sätzen.

ABSENDER
Wer hat den Brief geschickt (Behörde, Abteilung, Sachbearbeiter).

DOKUMENTTYP
Die Art des Dokuments (Bescheid, Mahnung, Einladung, Bescheinigung, ...).

HAUPTINHALT
Was der Brief im Einzelnen mitteilt.

ERFORDERLICHE MASSNAHMEN
Welche konkreten Schritte der Empfänger unternehmen muss.

WICHTIGE FRISTEN
Alle genannten Daten und Fristen im Format TT.MM.JJJJ.

MÖGLICHE FOLGEN
Was passieren kann, wenn die Maßnahmen nicht ergriffen werden.

DRINGLICHKEIT
Bewerten Sie die Dringlichkeit als NIEDRIG, MITTEL oder HOCH.

ANTWORTVORLAGE
Falls sinnvoll, eine höfliche Antwortvorlage auf Deutsch.

Datei: {{filename}}

Brieftext:
{{text}}`),

	LangRussian: prompt.New("analysis-ru", `Проанализируйте это официальное немецкое письмо и дайте структурированный ответ на русском языке.

Используйте ровно следующие заголовки в этом порядке и НЕ используйте символы форматирования (* # и другие):

КРАТКОЕ РЕЗЮМЕ
Опишите содержание письма в 2-3 предложениях.

ИНФОРМАЦИЯ ОБ ОТПРАВИТЕЛЕ
Кто отправил письмо (организация, департамент, должностное лицо).

ТИП ПИСЬМА
Тип документа (уведомление, требование, приглашение, справка и т.д.).

ОСНОВНОЕ СОДЕРЖАНИЕ
Подробно: о чём говорится в письме.

ТРЕБУЕМЫЕ ДЕЙСТВИЯ
Какие конкретные действия требуются от получателя.

ВАЖНЫЕ СРОКИ
Все упомянутые даты и сроки в формате ДД.ММ.ГГГГ.

ВОЗМОЖНЫЕ ПОСЛЕДСТВИЯ
Что может произойти, если не предпринять требуемые действия.

УРОВЕНЬ СРОЧНОСТИ
Оцените срочность как НИЗКИЙ, СРЕДНИЙ или ВЫСОКИЙ.

ШАБЛОН ОТВЕТА
При необходимости вежливый шаблон ответа на немецком языке.

Файл: {{filename}}

Текст письма:
{{text}}`),

	LangUkrainian: prompt.New("analysis-uk", `Проаналізуйте цей офіційний німецький лист і дайте структуровану відповідь українською мовою.

Використовуйте саме такі заголовки в цьому порядку і НЕ використовуйте символи форматування (* # та інші):

КОРОТКИЙ ЗМІСТ
Опишіть зміст листа у 2-3 реченнях.

ВІДПРАВНИК
Хто надіслав лист (організація, відділ, посадова особа).

ТИП ЛИСТА
Тип документа (повідомлення, вимога, запрошення, довідка тощо).

ОСНОВНИЙ ЗМІСТ
Докладно: про що йдеться в листі.

НЕОБХІДНІ ДІЇ
Які конкретні дії потрібні від одержувача.

ВАЖЛИВІ ТЕРМІНИ
Усі згадані дати та терміни у форматі ДД.ММ.РРРР.

МОЖЛИВІ НАСЛІДКИ
Що може статися, якщо не виконати необхідні дії.

ТЕРМІНОВІСТЬ
Оцініть терміновість як НИЗЬКА, СЕРЕДНЯ або ВИСОКА.

ШАБЛОН ВІДПОВІДІ
За потреби ввічливий шаблон відповіді німецькою мовою.

Файл: {{filename}}

Текст листа:
{{text}}`),
}

// BuildPrompt renders the analysis instruction for lang around the extracted
// text.
func BuildPrompt(lang, fileName, text string) (string, error) {
	return templates[NormalizeLanguage(lang)].Render(map[string]string{
		"filename": fileName,
		"text":     text,
	})
}
