package silver

import "testing"

func TestParseRankAcceptsHashFormAndRejectsOverCeiling(t *testing.T) {
	if v, ok := parseRank("#1,234", 50000); !ok || v != 1234 {
		t.Fatalf("expected 1234, got %d ok=%v", v, ok)
	}
	if _, ok := parseRank("rank 60000", 50000); ok {
		t.Fatalf("expected rejection over ceiling")
	}
	if _, ok := parseRank("-5", 50000); ok {
		t.Fatalf("expected rejection of negative rank")
	}
}

func TestParsePercentageAcceptsDecimalFraction(t *testing.T) {
	v, ok := parsePercentage("0.57")
	if !ok || v != 57 {
		t.Fatalf("expected 57, got %v ok=%v", v, ok)
	}
	v, ok = parsePercentage("42.5%")
	if !ok || v != 42.5 {
		t.Fatalf("expected 42.5, got %v ok=%v", v, ok)
	}
	if _, ok := parsePercentage("150%"); ok {
		t.Fatalf("expected rejection over 100")
	}
}

func TestNormalizePhoneFormatsTenDigits(t *testing.T) {
	v, ok := normalizePhone("(703) 555-1212")
	if !ok || v != "(703) 555-1212" {
		t.Fatalf("expected normalized phone, got %q ok=%v", v, ok)
	}
}

func TestValidGradesServedAcceptsKPrefixRejectsKG(t *testing.T) {
	if _, ok := validGradesServed("K-9-12"); !ok {
		t.Fatalf("expected K-9-12 to be accepted")
	}
	if _, ok := validGradesServed("9-12"); !ok {
		t.Fatalf("expected 9-12 to be accepted")
	}
	if _, ok := validGradesServed("KG-12"); ok {
		t.Fatalf("expected KG-12 to be rejected per the pinned grammar")
	}
}

func TestValidSchoolNameRejectsPlaceholders(t *testing.T) {
	if _, ok := validSchoolName("Not Found"); ok {
		t.Fatalf("expected placeholder title rejected")
	}
	if _, ok := validSchoolName("Westfield High School"); !ok {
		t.Fatalf("expected real school name accepted")
	}
}
