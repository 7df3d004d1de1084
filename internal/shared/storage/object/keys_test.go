package object

import (
	"strings"
	"testing"
)

func TestUserPrefix(t *testing.T) {
	got := UserPrefix("google:12345")
	if got != UserPrefix("google:12345") {
		t.Fatalf("expected stable prefix, got %s", got)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("prefix contains non-hex character: %c", ch)
		}
	}
	if got == UserPrefix("guest:12345") {
		t.Fatal("expected distinct users to get distinct prefixes")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain name passes through", in: "answer.pcm", want: "answer.pcm"},
		{name: "browser recording name", in: "Recording 2026-08-25 at 10.12.wav", want: "Recording_2026-08-25_at_10.12.wav"},
		{name: "path separators collapse", in: "voice/clips\\final.webm", want: "voice_clips_final.webm"},
		{name: "windows path loses drive", in: "C:\\Users\\me\\resume.docx", want: "C:_Users_me_resume.docx"},
		{name: "control characters collapse", in: "take\x001\x07.wav", want: "take_1_.wav"},
		{name: "traversal rejected", in: "../../etc/passwd", wantErr: true},
		{name: "dotdot inside name rejected", in: "clip..wav", wantErr: true},
		{name: "whitespace only rejected", in: "   ", wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SanitizeFileName(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFileName(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 300) + ".wav"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("SanitizeFileName returned error: %v", err)
	}
	if len(got) != maxFileNameLen {
		t.Fatalf("expected %d bytes, got %d", maxFileNameLen, len(got))
	}
	if !strings.HasSuffix(got, ".wav") {
		t.Fatalf("expected extension preserved, got %q", got)
	}
}
