package analysis

import (
	"bytes"
	"text/template"

	"researchkit/internal/textrecord"
)

// Topics are the themes quotes are extracted for.
var Topics = []string{
	"Product Management",
	"Culture",
	"Hiring",
	"AI",
	"Teams",
	"Success",
	"User Feedback",
	"Business Strategies",
	"Learning from Mistakes",
	"Storytelling",
	"Procrastination",
	"Market Dynamics",
	"Product Development",
	"Sales & Go-to-Market Tactics",
	"Design",
	"SaaS = Software Fragmentation",
	"Leadership",
}

const videoPromptText = `Analyze the following transcripts from YouTube videos and provide:
1. A concise summary (1 paragraph) of the main points and key ideas of each video.
2. 10 or more relevant and impactful quotes from the transcript about the ideas below.
   Any time the script mentions one of the keywords below, please extract the exact quote and include it.
   Please search for quotes about these ideas:
{{- range .Topics}}
   - {{.}}
{{- end}}
3. Include the URL of the video in the analysis

Title: {{.Title}}
URL: {{.URL}}
Transcript:
{{.Transcript}}

Please format your response as follows:
SUMMARY:
[Your summary here]

QUOTES:
{{- range .Slots}}
{{.}}. "[ quote]"
{{- end}}

URL:
[Video URL]
`

const filePromptText = `Analyze the following transcripts from YouTube video and provide:
1. A concise summary (1 paragraph) of the main points and key ideas.
2. 10 or more relevant and impactful quotes from the transcript about the ideas below.
   Any time the script mentions one of the keywords below, please extract the exact quote and include it.
   Please search for quotes about these ideas:
{{- range .Topics}}
   - {{.}}
{{- end}}

Transcript:
{{.Transcript}}

Please format your response as follows:
SUMMARY:
[Your summary here]

QUOTES:
{{- range .Slots}}
{{.}}. "[ quote]"
{{- end}}
11. [...]
`

var (
	videoPrompt = template.Must(template.New("video").Parse(videoPromptText))
	filePrompt  = template.Must(template.New("file").Parse(filePromptText))
)

type promptData struct {
	Title      string
	URL        string
	Transcript string
	Topics     []string
	Slots      []int
}

func newPromptData(title, url, transcript string) promptData {
	slots := make([]int, 10)
	for i := range slots {
		slots[i] = i + 1
	}
	return promptData{Title: title, URL: url, Transcript: transcript, Topics: Topics, Slots: slots}
}

// BuildPrompt renders the analysis prompt for one video.
func BuildPrompt(rec textrecord.TranscriptRecord) string {
	var buf bytes.Buffer
	// the template is static and its data always well-formed
	_ = videoPrompt.Execute(&buf, newPromptData(rec.Title, rec.URL, rec.Transcript))
	return buf.String()
}

// BuildFilePrompt renders the prompt for a standalone transcript file.
func BuildFilePrompt(transcript string) string {
	var buf bytes.Buffer
	_ = filePrompt.Execute(&buf, newPromptData("", "", transcript))
	return buf.String()
}
