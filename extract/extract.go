// Package extract pulls company names and key points out of call
// transcripts and emails using pattern heuristics. It is a thin, replaceable
// collaborator: the orchestrator consumes it behind interfaces and makes no
// promises about semantic quality.
package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var transcriptCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:I'm|I am|this is)(?:[^,.]*)(?:from|with|at)\s+([A-Z][A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`(?:welcome to|joining|interview with)\s+([A-Z][A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`([A-Z][A-Za-z0-9\s&]+)(?:position|opportunity|role|job)`),
}

// CompanyFromTranscript attempts to extract a company name from a call
// transcript, returning "" when no pattern matches. When a pattern matches
// several times the longest candidate wins.
func CompanyFromTranscript(transcript string) string {
	for _, pattern := range transcriptCompanyPatterns {
		best := ""
		for _, m := range pattern.FindAllStringSubmatch(transcript, -1) {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) > len(best) {
				best = candidate
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

// transcript key point categories with their output labels
var transcriptPointPatterns = []struct {
	label    string
	patterns []*regexp.Regexp
}{
	{"Role", []*regexp.Regexp{
		regexp.MustCompile(`(?:the role|position|job)(?: is| involves| includes)([^.]*)`),
		regexp.MustCompile(`(?:responsibilities include|will be responsible for|duties are)([^.]*)`),
	}},
	{"Required", []*regexp.Regexp{
		regexp.MustCompile(`(?:require|need|looking for|must have)(?:[^.]*?)(?:experience with|background in|knowledge of)([^.]*)`),
		regexp.MustCompile(`(?:skills|qualifications|requirements)(?:[^.]*?)(?:include|are|should be)([^.]*)`),
	}},
	{"Company", []*regexp.Regexp{
		regexp.MustCompile(`(?:our company|we are|the company)(?:[^.]*?)(?:focused on|specializes in|works on)([^.]*)`),
	}},
	{"Next steps", []*regexp.Regexp{
		regexp.MustCompile(`(?:next steps|next stage|what happens next|moving forward)([^.]*)`),
		regexp.MustCompile(`(?:follow up|get back to you|decision|hear from us)([^.]*)`),
	}},
}

// TranscriptKeyPoints extracts labeled key points from an interview
// transcript.
func TranscriptKeyPoints(transcript string) []string {
	var points []string
	for _, category := range transcriptPointPatterns {
		for _, pattern := range category.patterns {
			for _, m := range pattern.FindAllStringSubmatch(transcript, -1) {
				if text := strings.TrimSpace(m[1]); text != "" {
					points = append(points, category.label+": "+text)
				}
			}
		}
	}
	return points
}

// Mailbox providers whose domains never identify an employer.
var commonMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"aol.com":     true,
	"icloud.com":  true,
}

var emailBodyCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:work|working) (?:at|for|with) ([A-Z][A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`(?i)(?:behalf|representative) of ([A-Z][A-Za-z0-9\s&]+)`),
}

var emailSubjectCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:position|role|opportunity|application|interview) (?:at|with) ([A-Z][A-Za-z0-9\s&]+)`),
	regexp.MustCompile(`(?i)([A-Z][A-Za-z0-9\s&]+) (?:position|role|opportunity|application|interview)`),
}

// CompanyFromEmail attempts to extract a company name from email metadata:
// first the sender domain (skipping consumer mail providers), then signature
// patterns in the body, then the subject line. Returns "" when nothing
// matches.
func CompanyFromEmail(from, subject, body string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 {
		domain := strings.ToLower(strings.Trim(from[at+1:], "> "))
		if domain != "" && !commonMailDomains[domain] {
			name := strings.SplitN(domain, ".", 2)[0]
			if name != "" {
				return strings.ToUpper(name[:1]) + name[1:]
			}
		}
	}

	for _, pattern := range emailBodyCompanyPatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	for _, pattern := range emailSubjectCompanyPatterns {
		if m := pattern.FindStringSubmatch(subject); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	return ""
}

var emailScheduledPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:interview|meeting|call|discussion)(?:.*?)(?:scheduled|planned|arranged|set up)(?:.*?)(?:on|for) ([A-Za-z]+\s+\d+(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
	regexp.MustCompile(`([A-Za-z]+day,?\s+[A-Za-z]+\s+\d+(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
}

var emailPositionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:position|role|job)(?: for| of)? ([^.,;\n]+)`),
	regexp.MustCompile(`(?:applying|application|candidacy)(?: for| to)? ([^.,;\n]+)`),
}

var emailNextStepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:next steps?|follow(?:-| )up)(?: will be| is| are)? ([^.,;\n]+)`),
}

// EmailKeyPoints extracts labeled key points from an email: scheduled
// interview hints, position mentions, next steps, plus subject, sender and
// date lines when informative.
func EmailKeyPoints(subject, from, date, body string) []string {
	var points []string

	for _, pattern := range emailScheduledPatterns {
		for _, m := range pattern.FindAllStringSubmatch(body, -1) {
			if text := strings.TrimSpace(m[1]); text != "" {
				points = append(points, "Scheduled: "+text)
			}
		}
	}

	for _, pattern := range emailPositionPatterns {
		for _, m := range pattern.FindAllStringSubmatch(body, -1) {
			if text := strings.TrimSpace(m[1]); len(text) > 3 {
				points = append(points, "Position: "+text)
			}
		}
	}

	for _, pattern := range emailNextStepPatterns {
		for _, m := range pattern.FindAllStringSubmatch(body, -1) {
			if text := strings.TrimSpace(m[1]); len(text) > 10 {
				points = append(points, "Next steps: "+text)
			}
		}
	}

	if len(subject) > 10 && !strings.HasPrefix(subject, "Re:") && !strings.HasPrefix(subject, "Fwd:") {
		points = append(points, "Subject: "+subject)
	}
	if from != "" {
		points = append(points, "From: "+from)
	}
	if date != "" {
		points = append(points, "Date: "+date)
	}

	return points
}

var filenameDatePattern = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

// DateFromFilename extracts a YYYY-MM-DD date embedded in a file name,
// falling back to the current date.
func DateFromFilename(path string) string {
	name := filepath.Base(path)
	if m := filenameDatePattern.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return time.Now().Format("2006-01-02")
}
