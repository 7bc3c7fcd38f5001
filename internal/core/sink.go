package core

import "sync"

// Violation is one data-quality finding. A nil RespondentID marks a rule-level
// diagnostic (bad rule text, unknown column) rather than a respondent's answer.
type Violation struct {
	RespondentID *string `json:"respondent_id"`
	Question     string  `json:"question"`
	CheckType    string  `json:"check_type"`
	Issue        string  `json:"issue"`
}

// RuleLevel reports whether the violation is a rule-level diagnostic.
func (v Violation) RuleLevel() bool { return v.RespondentID == nil }

// Sink is an ordered, append-only collection of violations. Appends are
// serialized so one Sink can be shared by concurrent producers, though the
// validator gives each rule its own sink and merges them in rule order.
type Sink struct {
	mu      sync.Mutex
	records []Violation
}

// NewSink returns an empty sink.
func NewSink() *Sink { return &Sink{} }

// Append adds violations in order.
func (s *Sink) Append(v ...Violation) {
	s.mu.Lock()
	s.records = append(s.records, v...)
	s.mu.Unlock()
}

// Len returns the number of records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the collected violations.
func (s *Sink) Records() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Violation, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Sink) respondent(id, question string, ct CheckType, issue string) {
	s.Append(Violation{RespondentID: &id, Question: question, CheckType: ct.String(), Issue: issue})
}

func (s *Sink) ruleLevel(question, checkType, issue string) {
	s.Append(Violation{Question: question, CheckType: checkType, Issue: issue})
}

// Summary aggregates a violation list for reporting.
type Summary struct {
	Total           int            `json:"total"`
	RespondentLevel int            `json:"respondent_level"`
	RuleLevel       int            `json:"rule_level"`
	Respondents     int            `json:"respondents_flagged"`
	ByCheckType     map[string]int `json:"by_check_type"`
}

// Summarize counts violations by check type and level.
func Summarize(vs []Violation) Summary {
	s := Summary{Total: len(vs), ByCheckType: make(map[string]int)}
	flagged := make(map[string]struct{})
	for _, v := range vs {
		s.ByCheckType[v.CheckType]++
		if v.RuleLevel() {
			s.RuleLevel++
			continue
		}
		s.RespondentLevel++
		flagged[*v.RespondentID] = struct{}{}
	}
	s.Respondents = len(flagged)
	return s
}
