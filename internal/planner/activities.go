package planner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
)

const (
	// DefaultActivityCost applies when a retrieved line carries no price.
	DefaultActivityCost = 50.0

	maxTipLen = 200
)

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

var slots = []model.TimeOfDay{model.Morning, model.Afternoon, model.Evening}

// ParseActivityLine reads a pipe-delimited retrieval line of the form
//
//	title | description | [cost] | [time-of-day]
//
// Cost is the first number in the third field (default 50). Time of day is
// whichever slot name appears first in the fourth field (default morning).
// Lines with an empty title are rejected.
func ParseActivityLine(line string) (model.Activity, bool) {
	fields := strings.Split(line, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	title := fields[0]
	if title == "" {
		return model.Activity{}, false
	}

	act := model.Activity{
		TimeOfDay:    model.Morning,
		Title:        title,
		Description:  title,
		CostEstimate: DefaultActivityCost,
	}
	if len(fields) > 1 && fields[1] != "" {
		act.Description = fields[1]
	}
	if len(fields) > 2 {
		if tok := numberRe.FindString(fields[2]); tok != "" {
			if v, err := strconv.ParseFloat(tok, 64); err == nil {
				act.CostEstimate = v
			}
		}
	}
	if len(fields) > 3 {
		act.TimeOfDay = firstSlot(fields[3])
	}
	return act, true
}

func firstSlot(field string) model.TimeOfDay {
	lower := strings.ToLower(field)
	best, bestAt := model.Morning, -1
	for _, s := range slots {
		if at := strings.Index(lower, string(s)); at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = s, at
		}
	}
	return best
}

// retrievalPool searches r for query and parses every non-blank line of
// every hit into an activity.
func retrievalPool(r Retriever, query string, topK int) []model.Activity {
	if r == nil {
		return nil
	}
	var pool []model.Activity
	for _, h := range r.Search(query, topK) {
		for _, line := range strings.Split(h.Text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if act, ok := ParseActivityLine(line); ok {
				pool = append(pool, act)
			}
		}
	}
	return pool
}

// catalogPool converts curated catalog activities to itinerary activities.
func catalogPool(list []catalog.Activity) []model.Activity {
	pool := make([]model.Activity, 0, len(list))
	for _, a := range list {
		pool = append(pool, model.Activity{
			TimeOfDay:       model.Morning,
			Title:           a.Title,
			Description:     a.Description,
			CostEstimate:    a.Price,
			BookingRequired: a.BookingRequired,
		})
	}
	return pool
}

// localTip returns the first line of the best retrieval hit, capped at
// 200 characters, or "" when nothing is indexed.
func localTip(r Retriever, destination string) string {
	if r == nil {
		return ""
	}
	hits := r.Search(destination, 1)
	if len(hits) == 0 {
		return ""
	}
	tip := strings.TrimSpace(hits[0].Text)
	if i := strings.IndexByte(tip, '\n'); i >= 0 {
		tip = tip[:i]
	}
	if runes := []rune(tip); len(runes) > maxTipLen {
		tip = string(runes[:maxTipLen])
	}
	return strings.TrimSpace(tip)
}
