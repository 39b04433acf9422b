package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// searchTickMsg fires once the query has been quiet for the debounce delay.
type searchTickMsg struct {
	kind  string
	seq   uint64
	query string
}

// debouncer turns a stream of query edits into at most one search per
// quiet period. Every edit bumps the sequence, so only the newest tick and
// the newest result are acted on.
type debouncer struct {
	kind  string
	delay time.Duration
	seq   uint64
}

func newDebouncer(kind string, delay time.Duration) debouncer {
	return debouncer{kind: kind, delay: delay}
}

// Schedule starts the quiet period for query. A zero delay fires at once.
func (d *debouncer) Schedule(query string) tea.Cmd {
	d.seq++
	msg := searchTickMsg{kind: d.kind, seq: d.seq, query: query}
	if d.delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d.delay, func(time.Time) tea.Msg { return msg })
}

// Due reports whether tick belongs to this debouncer and is the newest.
func (d *debouncer) Due(tick searchTickMsg) bool {
	return tick.kind == d.kind && tick.seq == d.seq
}

// Current reports whether seq is still the newest request.
func (d *debouncer) Current(seq uint64) bool {
	return seq == d.seq
}

// ParseHorseQuery turns the list's search box into a HorseSearch. Words of
// the form sex:female, owner:anna or before:2015-01-01 set the matching
// filter; everything else is matched against the name.
func ParseHorseQuery(q string) (model.HorseSearch, error) {
	var s model.HorseSearch
	var name []string
	for _, word := range strings.Fields(q) {
		field, value, ok := strings.Cut(word, ":")
		if !ok || value == "" {
			name = append(name, word)
			continue
		}
		switch strings.ToLower(field) {
		case "sex":
			sex, err := model.ParseSex(value)
			if err != nil {
				return s, err
			}
			s.Sex = sex
		case "owner":
			s.OwnerName = value
		case "before":
			d, err := model.ParseDate(value)
			if err != nil {
				return s, fmt.Errorf("before: %w", err)
			}
			s.BornBefore = &d
		case "desc":
			s.Description = value
		default:
			name = append(name, word)
		}
	}
	s.Name = strings.Join(name, " ")
	return s, nil
}
