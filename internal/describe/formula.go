package describe

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// DHIS2 indicator expression grammar: variable terms like
// #{dataElement.categoryOptionCombo.attributeOptionCombo} with optional
// wildcards and fewer sub-terms, arithmetic operators, and numeric constants.
// See the DHIS2 web API documentation on indicator expressions.
var (
	variableRe = regexp.MustCompile(`((?:[#ACDIR]|OUG)\{([\w*]*)\.?([\w*]*)\.?([\w*]*)\})`)
	operatorRe = regexp.MustCompile(`^[+\-/*]$`)
	termRe     = regexp.MustCompile(`(?:[#ACDIR]|OUG)\{[\w*]*\.?[\w*]*\.?[\w*]*\}|[+\-/*]|\d+(?:\.\d+)?`)
)

const unknownName = "??????"

func orUnknown(name string) string {
	if name == "" {
		return unknownName
	}
	return name
}

// parseFormula renders a numerator or denominator expression as
// human-readable text, substituting variable ids with their display names,
// and collects findings for unresolvable variables. When number is non-zero
// it must appear as an integer constant somewhere in the formula.
func (d *Describer) parseFormula(ctx context.Context, formula string, number int64, quantity string) (string, []Finding) {
	var calc strings.Builder
	var findings []Finding

	// Variables seen in this formula, to avoid duplicate findings.
	seen := make(map[string]bool)
	numberSeen := number == 0

	for _, term := range termRe.FindAllString(formula, -1) {
		if operatorRe.MatchString(term) {
			calc.WriteString(" " + term)
			continue
		}
		if groups := variableRe.FindStringSubmatch(term); groups != nil {
			findings = append(findings, d.renderVariableTerm(ctx, &calc, groups, quantity, seen)...)
			continue
		}
		// Numeric constant.
		calc.WriteString(" " + term)
		if n, err := strconv.ParseInt(term, 10, 64); err == nil && n == number {
			numberSeen = true
		}
	}

	if !numberSeen {
		findings = append(findings, Finding{FormulaNumberMissing, []string{quantity, strconv.FormatInt(number, 10)}})
	}
	return calc.String(), findings
}

// renderVariableTerm appends the display names for one variable term's dotted
// ids. groups[2..4] are the data element, category option combo, and
// attribute option combo ids; wildcards and empty slots are skipped.
func (d *Describer) renderVariableTerm(ctx context.Context, calc *strings.Builder, groups []string, quantity string, seen map[string]bool) []Finding {
	var findings []Finding

	primary := groups[2]
	info := d.variableInfo(ctx, primary)
	calc.WriteString(" " + orUnknown(info.name))
	if !seen[primary] {
		seen[primary] = true
		if info.code != NoErrors {
			findings = append(findings, variableFinding(info, primary, quantity))
		}
	}

	if coc := groups[3]; coc != "" && coc != "*" {
		// A dataSet's second slot can be a metric like REPORTING_RATE; insert
		// it as-is rather than reporting a missing variable.
		if info.elemType == "dataSet" && strings.Contains(coc, "_") {
			calc.WriteString(" " + coc)
		} else {
			cocInfo := d.variableInfo(ctx, coc)
			calc.WriteString(" " + orUnknown(cocInfo.name))
			if !seen[coc] {
				seen[coc] = true
				if cocInfo.code != NoErrors {
					findings = append(findings, variableFinding(cocInfo, coc, quantity))
				}
			}
		}
	}

	if aoc := groups[4]; aoc != "" && aoc != "*" {
		aocInfo := d.variableInfo(ctx, aoc)
		calc.WriteString(" " + orUnknown(aocInfo.name))
		if !seen[aoc] {
			seen[aoc] = true
			if aocInfo.code != NoErrors {
				findings = append(findings, variableFinding(aocInfo, aoc, quantity))
			}
		}
	}

	return findings
}

func variableFinding(info variableInfo, id, quantity string) Finding {
	if info.elemType != "" {
		return Finding{info.code, []string{id, info.elemType, quantity}}
	}
	return Finding{info.code, []string{id, quantity}}
}

// deplural strips a trailing plural 's' (English-only), leaving words ending
// in a double 's' alone.
func deplural(s string) string {
	if len(s) >= 2 && s[len(s)-1] == 's' && s[len(s)-2] != 's' {
		return s[:len(s)-1]
	}
	return s
}
