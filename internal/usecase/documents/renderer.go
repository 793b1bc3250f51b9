package documents

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// TextRenderer produces plain-text minutes. It stands in for template
// driven renderers and is also the fallback when those fail: the
// pipeline must always be able to finish with readable minutes.
type TextRenderer struct{}

// NewTextRenderer creates a text renderer
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// RenderPDF renders minutes for PDF storage
func (r *TextRenderer) RenderPDF(meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]byte, error) {
	return r.render(meeting, extraction, organizer), nil
}

// RenderDOCX renders minutes for DOCX storage
func (r *TextRenderer) RenderDOCX(meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]byte, error) {
	return r.render(meeting, extraction, organizer), nil
}

func (r *TextRenderer) render(meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MEETING MINUTES\n")
	fmt.Fprintf(&buf, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&buf, "Title: %s\n", meeting.Title)
	if meeting.ScheduledAt != nil {
		fmt.Fprintf(&buf, "Date: %s\n", meeting.ScheduledAt.Format("2006-01-02 15:04"))
	}
	if organizer != nil {
		fmt.Fprintf(&buf, "Organizer: %s <%s>\n", organizer.Name, organizer.Email)
	}

	if len(meeting.Attendees) > 0 {
		fmt.Fprintf(&buf, "\nAttendees:\n")
		for _, a := range meeting.Attendees {
			if a.User != nil {
				fmt.Fprintf(&buf, "  - %s <%s>\n", a.User.Name, a.User.Email)
			} else if a.InviteEmail != nil {
				fmt.Fprintf(&buf, "  - %s\n", *a.InviteEmail)
			}
		}
	}

	if extraction != nil {
		if len(extraction.Data.TopicsDiscussed) > 0 {
			fmt.Fprintf(&buf, "\nTopics Discussed:\n")
			for _, topic := range extraction.Data.TopicsDiscussed {
				if topic.Summary != "" {
					fmt.Fprintf(&buf, "  - %s: %s\n", topic.AgendaItem, topic.Summary)
				} else {
					fmt.Fprintf(&buf, "  - %s\n", topic.AgendaItem)
				}
			}
		}
		if len(extraction.Data.Decisions) > 0 {
			fmt.Fprintf(&buf, "\nDecisions:\n")
			for _, d := range extraction.Data.Decisions {
				fmt.Fprintf(&buf, "  - [%s] %s\n", d.Topic, d.Decision)
			}
		}
		if len(extraction.Data.ActionItems) > 0 {
			fmt.Fprintf(&buf, "\nAction Items:\n")
			for _, item := range extraction.Data.ActionItems {
				line := item.Description
				if item.AssignedTo != "" {
					line += fmt.Sprintf(" (assigned to %s)", item.AssignedTo)
				}
				if item.Deadline != "" {
					line += fmt.Sprintf(" [due %s]", item.Deadline)
				}
				fmt.Fprintf(&buf, "  - %s\n", line)
			}
		}
	}

	return buf.Bytes()
}
