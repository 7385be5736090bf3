package describe

import (
	"regexp"
	"strconv"
)

var wordFactors = map[string]int64{
	"ten":      10,
	"hundred":  100,
	"thousand": 1000,
	"million":  1000000,
	"billion":  1000000000,
	"percent":  100,
}

var (
	// Operates on text with whitespace and commas squeezed out, so
	// "per 1 000" and "per 1,000" both read as "per1000".
	multiplicativeNumberRe = regexp.MustCompile(`(?:pour|per|par|[*/])(\d+)|(\d+)\*`)
	bareNumberRe           = regexp.MustCompile(`(\d+)`)
	// Operates on text with whitespace and hyphens doubled into spaces, so
	// word factors stay individually delimited ("per ten-thousand").
	wordFactorRe = regexp.MustCompile(`(?:^|\s)(ten|hundred|thousand|million|billion|percent)(?:\s|$)`)

	squeezeRe = regexp.MustCompile(`[\s,]`)
	spreadRe  = regexp.MustCompile(`[\s-]`)
)

// ExtractFactor pulls a numerical factor out of display text. In
// multiplicative mode only "per 1000", "pour 100", "* 1000" or "1000 *" style
// factors count; otherwise any number qualifies. Word factors multiply when
// chained, so "per ten thousand" yields 10000. Returns 0 when the text names
// no factor.
func ExtractFactor(text string, multiplicative bool) int64 {
	squeezed := squeezeRe.ReplaceAllString(text, "")
	numberRe := bareNumberRe
	if multiplicative {
		numberRe = multiplicativeNumberRe
	}
	if m := numberRe.FindStringSubmatch(squeezed); m != nil {
		for _, group := range m[1:] {
			if group == "" {
				continue
			}
			if n, err := strconv.ParseInt(group, 10, 64); err == nil {
				return n
			}
		}
	}

	spread := spreadRe.ReplaceAllString(text, "  ")
	matches := wordFactorRe.FindAllStringSubmatch(spread, -1)
	if len(matches) == 0 {
		return 0
	}
	factor := int64(1)
	for _, m := range matches {
		factor *= wordFactors[m[1]]
	}
	return factor
}
