package source

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aasthagit2025/checkdv/internal/core"
)

// ruleFile is the YAML rule-table layout:
//
//	rules:
//	  - question: Q1
//	    checks:
//	      - type: Range
//	        condition: 1-5
//	      - type: Missing
//	  - question: Q3_
//	    check_type: Skip
//	    condition: if Q2 = 1 then Q3_
//
// A rule uses either a checks list or the flat check_type/condition pair,
// which keeps the semicolon form of the CSV table.
type ruleFile struct {
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Question  string      `yaml:"question"`
	CheckType string      `yaml:"check_type"`
	Condition string      `yaml:"condition"`
	Checks    []yamlCheck `yaml:"checks"`
}

type yamlCheck struct {
	Type      string `yaml:"type"`
	Condition string `yaml:"condition"`
}

// ReadRuleYAML reads a YAML rule file into rule-table rows.
func ReadRuleYAML(r io.Reader) ([]core.RuleRow, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("rules: %w", ErrEmptyFile)
		}
		return nil, fmt.Errorf("rules: %w", err)
	}

	rows := make([]core.RuleRow, 0, len(f.Rules))
	for i, yr := range f.Rules {
		q := strings.TrimSpace(yr.Question)
		if q == "" {
			return nil, fmt.Errorf("rules: entry %d has no question", i+1)
		}
		if len(yr.Checks) > 0 && yr.CheckType != "" {
			return nil, fmt.Errorf("rules: entry %d (%s) sets both checks and check_type", i+1, q)
		}

		row := core.RuleRow{Question: q, CheckType: yr.CheckType, Condition: yr.Condition}
		if len(yr.Checks) > 0 {
			types := make([]string, len(yr.Checks))
			conds := make([]string, len(yr.Checks))
			for j, c := range yr.Checks {
				if strings.Contains(c.Condition, ";") {
					return nil, fmt.Errorf("rules: entry %d (%s) check %d: condition may not contain ';'", i+1, q, j+1)
				}
				types[j] = c.Type
				conds[j] = c.Condition
			}
			row.CheckType = strings.Join(types, ";")
			row.Condition = strings.Join(conds, ";")
		}
		rows = append(rows, row)
	}
	return rows, nil
}
