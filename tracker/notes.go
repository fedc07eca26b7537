package tracker

import (
	"strings"
	"time"
)

// maxParagraphLen mirrors the per-block size limit of the record backends
// the note ends up in; longer paragraphs are split before composition.
const maxParagraphLen = 1900

// composeCallNote renders a call interaction as note text: a dated heading,
// the extracted key points and the chunked transcript.
func composeCallNote(callDate, transcript string, keyPoints []string) string {
	var b strings.Builder

	b.WriteString("## Call Notes - " + callDate + "\n\n")
	b.WriteString("Key points from the call:\n")
	for _, point := range keyPoints {
		b.WriteString("- " + point + "\n")
	}

	b.WriteString("\n### Transcript\n\n")
	writeParagraphs(&b, transcript)

	return b.String()
}

// composeEmailNote renders an email interaction as note text: a dated
// heading, sender and subject metadata, key points and the chunked body.
func composeEmailNote(email Email, keyPoints []string) string {
	var b strings.Builder

	b.WriteString("## Email - " + formatEmailDate(email.Date) + "\n\n")
	b.WriteString("From: " + email.From + "\n")
	b.WriteString("Subject: " + email.Subject + "\n\n")

	b.WriteString("Key points from the email:\n")
	for _, point := range keyPoints {
		b.WriteString("- " + point + "\n")
	}

	if email.Body != "" {
		b.WriteString("\n### Email Content\n\n")
		writeParagraphs(&b, email.Body)
	}

	return b.String()
}

// writeParagraphs emits non-empty paragraphs, splitting any that exceed the
// per-paragraph limit.
func writeParagraphs(b *strings.Builder, text string) {
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		for _, chunk := range chunkText(paragraph, maxParagraphLen) {
			b.WriteString(chunk + "\n\n")
		}
	}
}

// chunkText splits text into pieces of at most size bytes.
func chunkText(text string, size int) []string {
	if len(text) <= size {
		return []string{text}
	}
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, strings.TrimSpace(text[:size]))
		text = text[size:]
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// formatEmailDate renders an ISO-8601 email date as a human-readable
// timestamp, keeping the original string when it does not parse.
func formatEmailDate(date string) string {
	if date == "" {
		return time.Now().Format("2006-01-02 15:04:05")
	}
	if strings.Contains(date, "T") {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
		if t, err := time.Parse("2006-01-02T15:04:05", date); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return date
}
