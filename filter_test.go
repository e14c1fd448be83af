package shotpdf

import "testing"

func TestSkipper(t *testing.T) {
	v := pageVars{name: "03-settings.png", index: 3, width: 750, height: 1624}
	tests := []struct {
		name     string
		conds    []string
		wantCond string
		want     bool
		wantErr  bool
	}{
		{"no conditions", nil, "", false, false},
		{"blank conditions", []string{"", "  "}, "", false, false},
		{"name", []string{`name.startsWith("03-")`}, `name.startsWith("03-")`, true, false},
		{"size", []string{"width > height"}, "", false, false},
		{"first true wins", []string{"index == 1", "height > 1000", "true"}, "height > 1000", true, false},
		{"regex", []string{`name.matches("^[0-9]+-set")`}, `name.matches("^[0-9]+-set")`, true, false},
		{"not bool", []string{"index + 1"}, "", false, true},
		{"unknown variable", []string{"page == 1"}, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk, err := newSkipper(tt.conds)
			if err != nil {
				if !tt.wantErr {
					t.Fatalf("newSkipper() error = %v", err)
				}
				return
			}
			cond, got, err := sk.skip(v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("skip() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("skip() = %v, want %v", got, tt.want)
			}
			if cond != tt.wantCond {
				t.Errorf("skip() condition = %q, want %q", cond, tt.wantCond)
			}
		})
	}
}

func TestSkipperEmpty(t *testing.T) {
	var nilSkipper *skipper
	if !nilSkipper.empty() {
		t.Error("nil skipper is not empty")
	}
	sk, err := newSkipper([]string{" "})
	if err != nil {
		t.Fatal(err)
	}
	if !sk.empty() {
		t.Error("skipper with blank conditions is not empty")
	}
}
