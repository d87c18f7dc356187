package model

import (
	"strings"
	"time"
)

// ParseQuickAdd turns a one-line task description into a NewTask.
//
//	"Write release notes !high due:friday #review @sam"
//
// !priority, due:<date>, #status and @assignee tokens are pulled out; every
// other word is kept in the title. Tokens that do not parse stay in the title.
// Status is left empty when no #status token is present so the caller can
// pick a column.
func ParseQuickAdd(text string, now time.Time) NewTask {
	var task NewTask
	var titleParts []string

	for _, word := range strings.Fields(text) {
		lower := strings.ToLower(word)
		switch {
		case strings.HasPrefix(word, "!") && len(word) > 1:
			if p, ok := parsePriority(lower[1:]); ok {
				task.Priority = p
			} else {
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(lower, "due:"):
			if due := ParseNaturalDate(lower[len("due:"):], now); due != nil {
				task.DueDate = due
			} else {
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(word, "#") && len(word) > 1:
			if s, err := ParseStatus(word[1:]); err == nil {
				task.Status = s
			} else {
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(word, "@") && len(word) > 1:
			assignee := word[1:]
			task.AssigneeID = &assignee

		default:
			titleParts = append(titleParts, word)
		}
	}

	task.Title = strings.Join(titleParts, " ")
	return task
}

func parsePriority(s string) (Priority, bool) {
	switch s {
	case "low", "l":
		return PriorityLow, true
	case "medium", "med", "m":
		return PriorityMedium, true
	case "high", "hi", "h", "urgent", "u":
		return PriorityHigh, true
	}
	return "", false
}

// ParseNaturalDate understands today, tomorrow, weekday names, nextweek and a
// few numeric layouts. Named days resolve to the end of that day in now's
// location. It returns nil when s is not a date.
func ParseNaturalDate(s string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	weekdays := map[string]time.Weekday{
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
		"sunday": time.Sunday, "sun": time.Sunday,
	}
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		daysUntil := int(day - now.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		t := today.AddDate(0, 0, daysUntil)
		return &t
	}

	for _, layout := range []string{"2006-01-02", "01/02/2006", "01-02-2006"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, now.Location())
			return &t
		}
	}
	return nil
}

// FormatDue renders a due date relative to now: today, tomorrow, a short
// date this year or a full date otherwise.
func FormatDue(due, now time.Time) string {
	due = due.In(now.Location())
	switch {
	case sameDay(due, now):
		return "today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "tomorrow"
	case due.Year() == now.Year():
		return due.Format("Mon, Jan 2")
	}
	return due.Format("Jan 2, 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
