package upload

import "testing"

func TestMimeType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "report.pdf", want: "application/pdf"},
		{name: "photo.JPG", want: "image/jpeg"},
		{name: "notes.txt", want: "text/plain"},
		{name: "archive.zip", want: "application/zip"},
		{name: "data.json", want: "application/json"},
		{name: "unknown.xyz", want: "application/octet-stream"},
		{name: "noextension", want: "application/octet-stream"},
	}
	for _, tc := range tests {
		if got := MimeType(tc.name); got != tc.want {
			t.Errorf("MimeType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
