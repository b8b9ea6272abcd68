package alerts

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chart is a dataset ready for the dashboard's charting widget.
type Chart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
	Colors []string `json:"colors"`
}

var statusColors = map[Status]string{
	StatusPending:  "#ffc107",
	StatusRead:     "#28a745",
	StatusArchived: "#6c757d",
}

const defaultColor = "#007bff"

var statusOrder = map[Status]int{
	StatusPending:  0,
	StatusSent:     1,
	StatusRead:     2,
	StatusArchived: 3,
}

// StatusChart builds the notifications-by-status dataset. Statuses with a
// zero count are omitted.
func StatusChart(counts map[Status]int) Chart {
	statuses := make([]Status, 0, len(counts))
	for st, n := range counts {
		if n > 0 {
			statuses = append(statuses, st)
		}
	}
	sort.Slice(statuses, func(i, j int) bool {
		oi, iok := statusOrder[statuses[i]]
		oj, jok := statusOrder[statuses[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return statuses[i] < statuses[j]
	})

	c := Chart{Labels: []string{}, Data: []int{}, Colors: []string{}}
	for _, st := range statuses {
		color, ok := statusColors[st]
		if !ok {
			color = defaultColor
		}
		c.Labels = append(c.Labels, capitalize(string(st)))
		c.Data = append(c.Data, counts[st])
		c.Colors = append(c.Colors, color)
	}
	return c
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
