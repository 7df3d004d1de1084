package object

import "testing"

func TestDetectMime(t *testing.T) {
	tests := []struct {
		name     string
		sniff    []byte
		fileName string
		want     string
	}{
		{name: "raw pcm by extension", sniff: []byte{0x01, 0x02, 0x7f, 0x80}, fileName: "answer.pcm", want: "audio/pcm"},
		{name: "webm by extension", sniff: []byte{0x00, 0x00, 0x00, 0x00}, fileName: "answer.webm", want: "audio/webm"},
		{name: "pdf by magic bytes", sniff: []byte("%PDF-1.7 rest of header"), fileName: "resume.bin", want: "application/pdf"},
		{name: "docx zip by extension", sniff: []byte("PK\x03\x04 more zip"), fileName: "resume.docx", want: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "plain zip stays zip", sniff: []byte("PK\x03\x04 more zip"), fileName: "archive.zip", want: "application/zip"},
		{name: "unknown binary stays octet-stream", sniff: []byte{0x00, 0x01, 0x02, 0x03}, fileName: "blob.dat", want: "application/octet-stream"},
		{name: "text by extension", sniff: []byte{0x00, 0xff}, fileName: "notes.txt", want: "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMime(tt.sniff, tt.fileName); got != tt.want {
				t.Fatalf("DetectMime(%q) = %q, want %q", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestKindFolder(t *testing.T) {
	if got := KindFolder("audio/pcm"); got != "voice" {
		t.Fatalf("KindFolder(audio/pcm) = %q, want voice", got)
	}
	if got := KindFolder("application/pdf"); got != "docs" {
		t.Fatalf("KindFolder(application/pdf) = %q, want docs", got)
	}
	if got := KindFolder("text/plain; charset=utf-8"); got != "docs" {
		t.Fatalf("KindFolder(text/plain) = %q, want docs", got)
	}
}
