package notionsync

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the insights database.
const (
	PropTitle         = "Title"
	PropInsightID     = "Insight ID"
	PropKind          = "Kind"
	PropRunID         = "Run ID"
	PropMerchant      = "Merchant"
	PropBody          = "Body"
	PropMonthlySaving = "Monthly Saving"
	PropAnnualSaving  = "Annual Saving"
	PropProjection    = "10y Projection"
	PropConfidence    = "Confidence"
	PropCreated       = "Created"
)

// maxRichText is Notion's limit for a single rich text item.
const maxRichText = 2000

// InsightToNotionProperties converts an insight to database page properties.
func InsightToNotionProperties(in domain.AdviceInsight) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:      notionapi.TitleProperty{Title: richText(in.Title)},
		PropInsightID:  notionapi.RichTextProperty{RichText: richText(strconv.FormatInt(in.ID, 10))},
		PropKind:       notionapi.SelectProperty{Select: notionapi.Option{Name: string(in.Kind)}},
		PropBody:       notionapi.RichTextProperty{RichText: richText(in.Body)},
		PropConfidence: notionapi.NumberProperty{Number: in.Confidence},
	}

	if in.RunID != "" {
		props[PropRunID] = notionapi.RichTextProperty{RichText: richText(in.RunID)}
	}
	if key := domain.MetaMerchantKey(in.Meta); key != "" {
		props[PropMerchant] = notionapi.RichTextProperty{RichText: richText(key)}
	}
	if in.MonthlySaving != nil {
		props[PropMonthlySaving] = notionapi.NumberProperty{Number: *in.MonthlySaving}
	}
	if in.AnnualSaving != nil {
		props[PropAnnualSaving] = notionapi.NumberProperty{Number: *in.AnnualSaving}
	}
	if in.Projection10y != nil {
		props[PropProjection] = notionapi.NumberProperty{Number: *in.Projection10y}
	}
	if !in.CreatedAt.IsZero() {
		d := notionapi.Date(in.CreatedAt.UTC())
		props[PropCreated] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: truncate(s, maxRichText)},
	}}
}

// truncate cuts s to at most n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// extractInsightID reads the Insight ID property of a queried page. It returns
// 0 when the property is missing or not a number.
func extractInsightID(page notionapi.Page) int64 {
	prop, ok := page.Properties[PropInsightID]
	if !ok {
		return 0
	}
	var text []notionapi.RichText
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		text = p.RichText
	case notionapi.RichTextProperty:
		text = p.RichText
	}
	if len(text) == 0 {
		return 0
	}
	raw := text[0].PlainText
	if raw == "" && text[0].Text != nil {
		raw = text[0].Text.Content
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
