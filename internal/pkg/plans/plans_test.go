package plans

import "testing"

func TestByName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Starter", want: "Starter"},
		{in: "starter", want: "Starter"},
		{in: "PRO", want: "Pro"},
		{in: "pro annual", want: "Pro Annual"},
		{in: "", want: "Starter"},
		{in: "does-not-exist", want: "Starter"},
	}

	for _, tt := range tests {
		if got := ByName(tt.in); got.Name != tt.want {
			t.Fatalf("ByName(%q) = %q, want %q", tt.in, got.Name, tt.want)
		}
	}
}

func TestStarterLimit(t *testing.T) {
	p := Starter()
	if p.MonthlyPostLimit != 5 {
		t.Fatalf("expected starter limit 5, got %d", p.MonthlyPostLimit)
	}
	if p.Unlimited() {
		t.Fatalf("starter must not be unlimited")
	}
}

func TestPaidPlansAreUnlimited(t *testing.T) {
	for _, p := range Catalog() {
		if p.Name == "Starter" {
			continue
		}
		if !p.Unlimited() {
			t.Fatalf("expected plan %q to be unlimited, got limit %d", p.Name, p.MonthlyPostLimit)
		}
		if p.CreditsIncluded <= 0 {
			t.Fatalf("expected plan %q to include credits", p.Name)
		}
	}
}

func TestCatalogIsCopied(t *testing.T) {
	c := Catalog()
	c[0].MonthlyPostLimit = 99
	if Starter().MonthlyPostLimit != 5 {
		t.Fatalf("catalog must not be mutable through Catalog()")
	}
}
