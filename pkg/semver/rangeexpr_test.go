package semver

import "testing"

func TestParseRangeContains(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		version string
		want    bool
	}{
		{name: "closed interval inside", spec: "[1.0,2.0]", version: "1.5", want: true},
		{name: "closed interval at max", spec: "[1.0,2.0]", version: "2.0", want: true},
		{name: "half open at max", spec: "[1.0,2.0)", version: "2.0", want: false},
		{name: "open at min", spec: "(1.0,2.0]", version: "1.0", want: false},
		{name: "no upper bound", spec: "[1.5,]", version: "99.0", want: true},
		{name: "no lower bound", spec: "(,2.0]", version: "0.1", want: true},
		{name: "no lower bound above max", spec: "(,2.0]", version: "2.1", want: false},
		{name: "bare version is inclusive minimum", spec: "1.5", version: "1.5", want: true},
		{name: "bare version below minimum", spec: "1.5", version: "1.4", want: false},
		{name: "exact pin hit", spec: "[1.5]", version: "1.5", want: true},
		{name: "exact pin miss", spec: "[1.5]", version: "1.6", want: false},
		{name: "normalized comparison", spec: "[1.0,2.0]", version: "1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.spec)
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.spec, err)
			}
			if got := r.Contains(tt.version); got != tt.want {
				t.Errorf("ParseRange(%q).Contains(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseRangeMalformed(t *testing.T) {
	for _, spec := range []string{"[1.0", "1.0]", "[1.0,2.0,3.0]", "(1.5)", "[2.0,1.0]"} {
		if _, err := ParseRange(spec); err == nil {
			t.Errorf("ParseRange(%q) succeeded, want error", spec)
		}
	}
}
