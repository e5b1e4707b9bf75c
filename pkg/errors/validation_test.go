package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid simple", id: "jquery", wantErr: false},
		{name: "valid dotted", id: "Microsoft.Extensions.Logging", wantErr: false},
		{name: "valid with hyphen", id: "my-package", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "path traversal", id: "../etc/passwd", wantErr: true},
		{name: "forward slash", id: "a/b", wantErr: true},
		{name: "backslash", id: "a\\b", wantErr: true},
		{name: "double slash", id: "a//b", wantErr: true},
		{name: "control character", id: "pkg\x01name", wantErr: true},
		{name: "null byte", id: "pkg\x00name", wantErr: true},
		{name: "too long", id: strings.Repeat("a", 257), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{name: "valid", source: "main-feed", wantErr: false},
		{name: "valid dotted", source: "feeds.internal", wantErr: false},
		{name: "empty", source: "", wantErr: true},
		{name: "slash", source: "a/b", wantErr: true},
		{name: "backslash", source: "a\\b", wantErr: true},
		{name: "control character", source: "bad\tname", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.source)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceName(%q) error = %v, wantErr %v", tt.source, err, tt.wantErr)
			}
		})
	}
}

func TestValidateArchiveEntryPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid relative", path: "lib/module.txt", wantErr: false},
		{name: "valid nested", path: "content/sub/file.dat", wantErr: false},
		{name: "empty", path: "", wantErr: true},
		{name: "absolute", path: "/etc/passwd", wantErr: true},
		{name: "traversal", path: "../outside", wantErr: true},
		{name: "embedded traversal", path: "a/../../b", wantErr: true},
		{name: "backslash", path: "a\\b", wantErr: true},
		{name: "null byte", path: "a\x00b", wantErr: true},
		{name: "too long", path: strings.Repeat("a/", 300), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArchiveEntryPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArchiveEntryPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFeedPackageID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid", id: "Newtonsoft.Json", wantErr: false},
		{name: "valid numeric start", id: "7zip", wantErr: false},
		{name: "leading dot", id: ".hidden", wantErr: true},
		{name: "space", id: "two words", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeedPackageID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFeedPackageID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
