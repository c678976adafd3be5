package validation

import (
	"errors"
	"testing"
)

func TestEmailPattern(t *testing.T) {
	if EmailPattern.MatchString("not-an-email") {
		t.Fatal("not-an-email should fail the pattern")
	}
	if !EmailPattern.MatchString("a@b.co") {
		t.Fatal("a@b.co should pass the pattern")
	}
	if EmailPattern.MatchString("a b@c.de") {
		t.Fatal("whitespace must be rejected")
	}
}

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := New()
	v.Required("lastName", " ")
	v.Required("firstName", "")
	v.Required("email", "a@b.co")
	v.Email("email", "broken")

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("issues = %v, want 3", issues)
	}
	if issues[0].Field != "email" || issues[1].Field != "firstName" || issues[2].Field != "lastName" {
		t.Fatalf("unexpected order: %v", issues)
	}
	var asIssues Issues
	if !errors.As(v.Err(), &asIssues) {
		t.Fatalf("Err should unwrap to Issues, got %T", v.Err())
	}
}

func TestScopedPrefixesFields(t *testing.T) {
	v := New()
	child := v.Scoped("educations[1]")
	child.Required("degree", "")
	v.Merge(child)
	if !v.Issues().Has("educations[1].degree") {
		t.Fatalf("expected scoped field, got %v", v.Issues())
	}
}

func TestDateAndOrder(t *testing.T) {
	v := New()
	if _, ok := v.Date("startDate", "2020-13-40"); ok {
		t.Fatal("invalid date accepted")
	}
	start, ok := New().Date("startDate", "2022-01-01")
	if !ok {
		t.Fatal("valid date rejected")
	}
	end, _ := New().Date("endDate", "2021-01-01")
	order := New()
	order.DateOrder("startDate", start, "endDate", end)
	if !order.Issues().Has("endDate") || order.Issues().Has("startDate") {
		t.Fatalf("expected only an endDate issue, got %v", order.Issues())
	}
	if !v.Issues().Has("startDate") {
		t.Fatalf("expected invalid date issue, got %v", v.Issues())
	}
}

func TestNilValidatorIsInert(t *testing.T) {
	var v *Validator
	v.Add("x", "broken")
	if v.HasIssues() || v.Err() != nil {
		t.Fatal("nil validator must not record issues")
	}
}

func TestEnumIsCaseInsensitive(t *testing.T) {
	v := New()
	v.Enum("gender", "FEMALE", []string{"Male", "Female"})
	v.Enum("gender", "", []string{"Male"})
	if v.HasIssues() {
		t.Fatalf("unexpected issues: %v", v.Issues())
	}
	v.Enum("gender", "unknown", []string{"Male", "Female"})
	if !v.HasIssues() {
		t.Fatal("expected enum issue")
	}
}
