package silver

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	rankDigitsPattern  = regexp.MustCompile(`[\d,]+`)
	numberDigitsPattern = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	ratioPattern       = regexp.MustCompile(`^\d{1,2}:\d$`)
	gradesServedPattern = regexp.MustCompile(`^(?:K-|PK-)?\d{1,2}-\d{1,2}$`)
	zipPattern         = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	nces12DigitPattern = regexp.MustCompile(`^\d{12}$`)
	phoneDigitsPattern = regexp.MustCompile(`\d`)
	invalidSchoolNames = map[string]bool{"error": true, "not found": true, "page not found": true}
)

// parseRank extracts a positive rank integer from forms like "#1234",
// "rank 1234", or a bare "1234", stripping commas, rejecting negatives
// and values over the field's ceiling.
func parseRank(raw string, ceiling int) (int, bool) {
	if strings.Contains(raw, "-") {
		return 0, false
	}
	m := rankDigitsPattern.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || v <= 0 || v > ceiling {
		return 0, false
	}
	return v, true
}

// parseNumber extracts the first comma-stripped integer from raw and
// checks it falls within [min,max].
func parseNumber(raw string, min, max int) (int, bool) {
	m := numberDigitsPattern.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}

// parsePercentage accepts "NN%", "NN.N%", or a decimal in (0,1] treated
// as a fraction (×100); the result must land in [0,100].
func parsePercentage(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasSuffix(trimmed, "%") {
		numStr := strings.TrimSuffix(trimmed, "%")
		v, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
		if err != nil || v < 0 || v > 100 {
			return 0, false
		}
		return v, true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	if v > 0 && v <= 1 {
		// Round away binary-fraction noise (0.57*100 is 56.99999999999999).
		v = math.Round(v*100*1e9) / 1e9
	}
	if v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// normalizePhone reformats any US phone number with at least ten digits
// into "(NNN) NNN-NNNN".
func normalizePhone(raw string) (string, bool) {
	digits := phoneDigitsPattern.FindAllString(raw, -1)
	if len(digits) < 10 {
		return "", false
	}
	joined := strings.Join(digits[len(digits)-10:], "")
	return "(" + joined[0:3] + ") " + joined[3:6] + "-" + joined[6:10], true
}

// validSchoolName rejects blank/placeholder titles and enforces the
// 5-100 character bound names for Tier 2 school_name.
func validSchoolName(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 5 || len(trimmed) > 100 {
		return "", false
	}
	if invalidSchoolNames[strings.ToLower(trimmed)] {
		return "", false
	}
	return trimmed, true
}

func validNCESId(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !nces12DigitPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

func validZip(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !zipPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

func validRatio(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !ratioPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// validGradesServed accepts only the `\d{1,2}-\d{1,2}` form, optionally
// prefixed with "K-" or "PK-" (e.g. "9-12", "K-9-12"). The prefix must be
// followed by a full numeric range, so "K-12" and "PK-5" are rejected, as
// are forms like "KG-12"; the grammar is literal, not generalized.
func validGradesServed(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !gradesServedPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}
