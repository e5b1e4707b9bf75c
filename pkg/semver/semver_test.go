package semver

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{
			name:  "two part",
			input: "1.0",
			want:  Version{Major: 1},
		},
		{
			name:  "three part",
			input: "1.2.3",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:  "four part",
			input: "1.2.3.4",
			want:  Version{Major: 1, Minor: 2, Patch: 3, Revision: 4},
		},
		{
			name:  "prerelease",
			input: "1.2.3-alpha.1",
			want:  Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "alpha.1"},
		},
		{
			name:  "build metadata",
			input: "1.2.3+build42",
			want:  Version{Major: 1, Minor: 2, Patch: 3, Build: "build42"},
		},
		{
			name:  "prerelease and build",
			input: "2.0.0-rc.1+sha.abc",
			want:  Version{Major: 2, Prerelease: "rc.1", Build: "sha.abc"},
		},
		{
			name:  "bare major",
			input: "7",
			want:  Version{Major: 7},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "too many parts", input: "1.2.3.4.5", wantErr: true},
		{name: "non numeric", input: "1.x.3", wantErr: true},
		{name: "negative part", input: "1.-2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "equal", a: "1.2.3", b: "1.2.3", want: 0},
		{name: "missing parts are zero", a: "1.0", b: "1.0.0", want: 0},
		{name: "major", a: "2.0", b: "1.9.9", want: 1},
		{name: "minor", a: "1.1", b: "1.2", want: -1},
		{name: "patch", a: "1.2.4", b: "1.2.3", want: 1},
		{name: "revision", a: "1.2.3.1", b: "1.2.3", want: 1},
		{name: "release beats prerelease", a: "1.0.0", b: "1.0.0-rc.1", want: 1},
		{name: "prerelease numeric order", a: "1.0.0-alpha.2", b: "1.0.0-alpha.10", want: -1},
		{name: "numeric below alphanumeric", a: "1.0.0-1", b: "1.0.0-alpha", want: -1},
		{name: "shorter prerelease first", a: "1.0.0-alpha", b: "1.0.0-alpha.1", want: -1},
		{name: "build ignored", a: "1.0.0+a", b: "1.0.0+b", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(MustParse(tt.a), MustParse(tt.b))
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "both valid", a: "1.5", b: "2.0", want: -1},
		{name: "unparsable sorts below parsed", a: "banana", b: "0.0.1", want: -1},
		{name: "two unparsable tie lexically", a: "apple", b: "banana", want: -1},
		{name: "identical garbage", a: "weird", b: "weird", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareStrings(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CompareStrings(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1.2", want: "1.2.0"},
		{input: "1.2.3.4", want: "1.2.3.4"},
		{input: "1.2.3-beta+b1", want: "1.2.3-beta+b1"},
	}

	for _, tt := range tests {
		if got := MustParse(tt.input).String(); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
