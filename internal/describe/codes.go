package describe

import (
	"fmt"
	"strings"
)

// Code identifies one validation finding category.
type Code int

const (
	NoErrors Code = iota
	IndicatorNotInRegistry
	IndicatorNoDisplayName
	NumeratorNoDescription
	DenominatorNoDescription
	NumeratorNoFormula
	DenominatorNoFormula
	DenominatorFormulaMismatch
	IndicatorNumberMissing
	FormulaNumberMissing
	VariableNotInRegistry
	VariableNoMetadata
	NumeratorEqualsDenominator
	IndicatorParseFailed
)

// English message templates with fill-in-the-blank slots. The output carries
// the filled message; consumers localizing must map from Code.
var templates = map[Code]struct {
	text   string
	blanks int
}{
	NoErrors:                 {"No errors found in indicator", 0},
	IndicatorNotInRegistry:   {"Indicator ___ not in registry", 1},
	IndicatorNoDisplayName:   {"Indicator ___ has no display name", 1},
	NumeratorNoDescription:   {"No description of the numerator", 0},
	DenominatorNoDescription: {"No description of the denominator; we assume it is 1", 0},
	NumeratorNoFormula:       {"Numerator has no formula", 0},
	DenominatorNoFormula:     {"Denominator has no formula", 0},
	DenominatorFormulaMismatch: {"Denominator formula does not match description", 0},
	IndicatorNumberMissing: {"Indicator description has a number in it (___)" +
		" which does not appear in numerator or denominator descriptions or the indicator type", 1},
	FormulaNumberMissing: {"___ description contains a number (___)" +
		" which does not appear in the formula", 2},
	VariableNotInRegistry: {"Variable ___ appearing in the formula for ___ is not" +
		" in the registry", 2},
	VariableNoMetadata: {"Variable ___ of type ___ appearing in the formula" +
		" for ___ has no valid metadata", 3},
	NumeratorEqualsDenominator: {"Numerator and denominator have the same formula", 0},
	IndicatorParseFailed:       {"Parsing of indicator ___ failed", 1},
}

// Finding pairs a validation code with the values filling its message blanks.
type Finding struct {
	Code Code
	Args []string
}

// Message renders the English message for the finding, filling the template
// blanks in order. The argument count must match the template's arity.
func (f Finding) Message() (string, error) {
	t, ok := templates[f.Code]
	if !ok {
		return "", fmt.Errorf("unknown validation code %d", int(f.Code))
	}
	if len(f.Args) != t.blanks {
		return "", fmt.Errorf("validation code %d takes %d values, got %d", int(f.Code), t.blanks, len(f.Args))
	}
	msg := t.text
	for _, arg := range f.Args {
		msg = strings.Replace(msg, "___", arg, 1)
	}
	return msg, nil
}

// Messages joins the rendered finding messages with newlines. A finding whose
// arguments do not match its template renders its error inline instead of
// silently vanishing from the report.
func Messages(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(findings))
	for _, f := range findings {
		msg, err := f.Message()
		if err != nil {
			msg = err.Error()
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "\n")
}
