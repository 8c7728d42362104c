package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// richTextLimit is Notion's per-block text limit.
const richTextLimit = 2000

// Lead is the row written to the lead database.
type Lead struct {
	Name       string
	Domain     string
	Industry   string
	Size       string
	Signals    int
	PainPoints []string
	Summary    string
	Status     string
}

// UpsertLead updates the page whose Domain equals lead.Domain, or creates a
// new one. It returns the page id and whether the page was created.
func UpsertLead(ctx context.Context, db LeadPages, lead Lead) (string, bool, error) {
	if strings.TrimSpace(lead.Name) == "" {
		return "", false, eris.New("notion: lead name is required")
	}

	if lead.Domain != "" {
		existing, err := db.FindByDomain(ctx, lead.Domain)
		if err != nil {
			return "", false, eris.Wrap(err, "notion: find lead")
		}
		if existing != nil {
			page, err := db.Update(ctx, existing.ID.String(), lead.properties())
			if err != nil {
				return "", false, eris.Wrap(err, "notion: update lead")
			}
			return page.ID.String(), false, nil
		}
	}

	page, err := db.Create(ctx, lead.properties())
	if err != nil {
		return "", false, eris.Wrap(err, "notion: create lead")
	}
	return page.ID.String(), true, nil
}

func (l Lead) properties() notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(l.Name),
		},
		"Signals": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(l.Signals),
		},
	}
	if l.Domain != "" {
		props["Domain"] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(l.Domain)}
		props["Website"] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: "https://" + l.Domain}
	}
	if l.Industry != "" {
		props["Industry"] = notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: l.Industry}}
	}
	if l.Size != "" {
		props["Size"] = notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: l.Size}}
	}
	if l.Status != "" {
		props["Status"] = notionapi.StatusProperty{Type: notionapi.PropertyTypeStatus, Status: notionapi.Status{Name: l.Status}}
	}
	if len(l.PainPoints) > 0 {
		props["Pain Points"] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(strings.Join(l.PainPoints, "\n"))}
	}
	if l.Summary != "" {
		props["Summary"] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(l.Summary)}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	r := []rune(s)
	if len(r) > richTextLimit {
		s = string(r[:richTextLimit])
	}
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}
