package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/original/file.pdf", want: "user/original/file.pdf"},
		{name: "simple prefix", prefix: "pdfs", key: "user/original/file.pdf", want: "pdfs/user/original/file.pdf"},
		{name: "prefix trailing slash", prefix: "pdfs/", key: "user/original/file.pdf", want: "pdfs/user/original/file.pdf"},
		{name: "prefix and key slashes", prefix: "/pdfs/", key: "/user/file.pdf", want: "pdfs/user/file.pdf"},
		{name: "nested prefix", prefix: "pdfs/prod", key: "user/file.pdf", want: "pdfs/prod/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	t.Parallel()

	if got := normalizePrefix(" /pdfs/ "); got != "pdfs" {
		t.Fatalf("normalizePrefix = %q, want %q", got, "pdfs")
	}
}
