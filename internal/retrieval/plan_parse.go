package retrieval

import (
	"encoding/json"
	"strings"

	"school-assistant/internal/domain/model"
)

type wirePlan struct {
	Searches []wireSearch `json:"searches"`
}

type wireSearch struct {
	SheetName  json.RawMessage `json:"sheetName"`
	SourceName json.RawMessage `json:"sourceName"`
	Filters    []wireFilter    `json:"filters"`
}

type wireFilter struct {
	Column json.RawMessage `json:"column"`
	Value  json.RawMessage `json:"value"`
}

// ParsePlan decodes a planner response. It strips code fences, tolerates prose
// around the JSON object and a bare top-level array of searches. ok is false
// when nothing usable could be decoded; the returned plan is then empty.
func ParsePlan(raw string) (plan model.RetrievalPlan, ok bool) {
	text := StripCodeFence(raw)
	if text == "" {
		return model.RetrievalPlan{}, false
	}

	var wp wirePlan
	switch {
	case decodeObject(text, &wp):
	case decodeArray(text, &wp.Searches):
	default:
		wp = wirePlan{}
		if obj, found := between(text, '{', '}'); found && decodeObject(obj, &wp) {
			break
		}
		if arr, found := between(text, '[', ']'); found && decodeArray(arr, &wp.Searches) {
			break
		}
		return model.RetrievalPlan{}, false
	}

	for _, s := range wp.Searches {
		name := rawString(s.SheetName)
		if name == "" {
			name = rawString(s.SourceName)
		}
		if name == "" {
			continue
		}
		search := model.Search{SourceName: name}
		for _, f := range s.Filters {
			search.Filters = append(search.Filters, model.Filter{
				Column: rawString(f.Column),
				Value:  rawString(f.Value),
			})
		}
		plan.Searches = append(plan.Searches, search)
	}
	return plan, true
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(s string, wp *wirePlan) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	return json.Unmarshal([]byte(s), wp) == nil
}

func decodeArray(s string, out *[]wireSearch) bool {
	if !strings.HasPrefix(s, "[") {
		return false
	}
	return json.Unmarshal([]byte(s), out) == nil
}

func between(s string, open, close byte) (string, bool) {
	i := strings.IndexByte(s, open)
	j := strings.LastIndexByte(s, close)
	if i < 0 || j <= i {
		return "", false
	}
	return s[i : j+1], true
}

// rawString accepts a JSON string or number and returns it trimmed.
func rawString(m json.RawMessage) string {
	if len(m) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err == nil {
		return n.String()
	}
	return ""
}
