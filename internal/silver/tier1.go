package silver

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const tierStructured = "structured_data"

var (
	stateRankPattern    = regexp.MustCompile(`ranked (\d+)(?:st|nd|rd|th) within`)
	apParticipationLDPattern = regexp.MustCompile(`AP® participation rate[^0-9]*(\d+)%`)
	minorityEnrollmentPattern = regexp.MustCompile(`total minority enrollment is (\d+)%`)
	econDisadvantagedLDPattern = regexp.MustCompile(`(\d+)% of students are economically disadvantaged`)
)

// ExtractStructuredData is Tier 1: it scans every
// <script type="application/ld+json"> block for a schema.org HighSchool
// payload and mines its description field with a small set of regexes.
// Only the first matching block is used.
func ExtractStructuredData(ctx *ExtractionContext) map[string]FieldResult {
	payload := findHighSchoolLD(ctx)
	if payload == nil || payload.HighSchool == nil {
		return nil
	}
	hs := payload.HighSchool
	out := map[string]FieldResult{}

	if hs.Name != "" {
		out[FieldSchoolName] = FieldResult{Value: hs.Name, Confidence: 95}
	}
	if hs.Location != nil && hs.Location.Address != nil {
		addr := hs.Location.Address
		if addr.StreetAddress != "" {
			out[FieldStreetAddress] = FieldResult{Value: addr.StreetAddress, Confidence: 90}
		}
		if addr.AddressLocality != "" {
			out[FieldCity] = FieldResult{Value: addr.AddressLocality, Confidence: 90}
		}
		if addr.AddressRegion != "" {
			out[FieldState] = FieldResult{Value: addr.AddressRegion, Confidence: 90}
		}
		if addr.PostalCode != "" {
			out[FieldZip] = FieldResult{Value: addr.PostalCode, Confidence: 90}
		}
	}
	if hs.Telephone != "" {
		out[FieldPhone] = FieldResult{Value: hs.Telephone, Confidence: 90}
	}

	if hs.Description != "" {
		mineDescription(hs.Description, out)
	}

	return out
}

func mineDescription(description string, out map[string]FieldResult) {
	if m := stateRankPattern.FindStringSubmatch(description); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			out[FieldStateRank] = FieldResult{Value: v, Confidence: 85}
		}
	}
	if m := apParticipationLDPattern.FindStringSubmatch(description); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out[FieldAPParticipationRate] = FieldResult{Value: v, Confidence: 80}
		}
	}
	if m := minorityEnrollmentPattern.FindStringSubmatch(description); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out[FieldWhitePct] = FieldResult{Value: 100 - v, Confidence: 80}
		}
	}
	if m := econDisadvantagedLDPattern.FindStringSubmatch(description); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out[FieldEconomicallyDisadvantagedPct] = FieldResult{Value: v, Confidence: 80}
		}
	}
}

// findHighSchoolLD decodes every application/ld+json script block until
// one tags itself @type "HighSchool"; everything else is Unknown per
// the sum-type shape and is silently skipped.
func findHighSchoolLD(ctx *ExtractionContext) *StructuredPayload {
	doc, err := ctx.Document()
	if err != nil {
		return nil
	}

	var found *StructuredPayload
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var hs HighSchoolLD
		if jsonErr := json.Unmarshal([]byte(s.Text()), &hs); jsonErr != nil {
			return true
		}
		if hs.Type != "HighSchool" {
			return true
		}
		found = &StructuredPayload{HighSchool: &hs}
		return false
	})
	return found
}
