package lark

import (
	"fmt"
	"strings"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

func markdownField(label, value string) map[string]interface{} {
	return map[string]interface{}{
		"is_short": true,
		"text": map[string]interface{}{
			"tag":     "lark_md",
			"content": fmt.Sprintf("**%s**\n%s", label, value),
		},
	}
}

// buildSubmissionCard lays out the submitted trip for the approver
func buildSubmissionCard(sub entity.TripSubmission) map[string]interface{} {
	rec := sub.Record

	template, title := "blue", "Travel request submitted"
	if rec.IsUrgent {
		template, title = "red", "Urgent travel request submitted"
	}

	destination := rec.DestinationCity
	if rec.DestinationCountry != "" {
		destination = fmt.Sprintf("%s, %s", rec.DestinationCity, rec.DestinationCountry)
	}

	elements := []interface{}{
		map[string]interface{}{
			"tag": "div",
			"text": map[string]interface{}{
				"tag":     "lark_md",
				"content": fmt.Sprintf("**%s**\n%s", rec.Name, rec.Justification),
			},
		},
		map[string]interface{}{
			"tag": "div",
			"fields": []map[string]interface{}{
				markdownField("Destination", destination),
				markdownField("Dates", fmt.Sprintf("%s to %s", rec.DepartureDate, rec.ReturnDate)),
				markdownField("Budget", fmt.Sprintf("%s %.2f", rec.Currency, rec.Budget)),
				markdownField("Attendees", rec.AttendeesOrSelf()),
			},
		},
	}

	if rec.Notes != "" || len(rec.Attachments) > 0 {
		elements = append(elements, map[string]interface{}{"tag": "hr"})
	}
	if rec.Notes != "" {
		elements = append(elements, map[string]interface{}{
			"tag": "div",
			"text": map[string]interface{}{
				"tag":     "lark_md",
				"content": "**Notes**\n" + rec.Notes,
			},
		})
	}
	if len(rec.Attachments) > 0 {
		elements = append(elements, map[string]interface{}{
			"tag": "div",
			"text": map[string]interface{}{
				"tag":     "lark_md",
				"content": "**Attachments**\n" + strings.Join(rec.Attachments, "\n"),
			},
		})
	}

	elements = append(elements, map[string]interface{}{
		"tag": "note",
		"elements": []map[string]interface{}{
			{
				"tag":     "plain_text",
				"content": fmt.Sprintf("Reference: %s | Submitted %s", sub.ReferenceID, sub.SubmittedAt.UTC().Format("2006-01-02 15:04 MST")),
			},
		},
	})

	return map[string]interface{}{
		"config": map[string]interface{}{
			"wide_screen_mode": true,
		},
		"header": map[string]interface{}{
			"template": template,
			"title": map[string]interface{}{
				"tag":     "plain_text",
				"content": title,
			},
		},
		"elements": elements,
	}
}
