package object

import (
	"net/http"
	"path"
	"strings"
)

// DetectMime resolves the content type of an uploaded object from its
// leading bytes, falling back to the file extension for the formats
// content sniffing cannot tell apart. Raw PCM voice clips sniff as
// octet-stream and OOXML documents sniff as plain zip, so both need the
// extension to land on a usable type.
func DetectMime(sniff []byte, fileName string) string {
	detected := http.DetectContentType(sniff)
	base := strings.ToLower(strings.TrimSpace(strings.Split(detected, ";")[0]))
	if base != "application/octet-stream" && base != "application/zip" {
		return detected
	}

	switch strings.ToLower(path.Ext(fileName)) {
	case ".pcm":
		return "audio/pcm"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	}
	return detected
}

// KindFolder groups stored objects by what they are: recorded voice
// answers under voice/, everything else under docs/.
func KindFolder(mimeType string) string {
	if strings.HasPrefix(mimeType, "audio/") {
		return "voice"
	}
	return "docs"
}
