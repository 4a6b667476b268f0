package draft

import "strings"

// Markers the generation prompt asks the model to emit.
const (
	SubjectMarker = "Subject:"
	BodyMarker    = "Body:"
)

// FallbackSubject is used when the generated text lacks either marker.
const FallbackSubject = "Generated Subject"

// Draft is a proposed subject/body pair.
type Draft struct {
	Subject string
	Body    string
}

// Parse splits generated text into a Draft using the Subject:/Body: markers.
// Best-effort: the model is asked for this shape but nothing enforces it.
// PRE: none
// POST: With both markers present, Subject is the text between the first "Subject:"
//
//	and the next "Body:", and Body is the text after the first "Body:" up to any
//	repeated "Body:", both trimmed. Otherwise Subject is FallbackSubject and Body is raw.
func Parse(raw string) Draft {
	if !strings.Contains(raw, SubjectMarker) || !strings.Contains(raw, BodyMarker) {
		return Draft{Subject: FallbackSubject, Body: raw}
	}

	afterSubject := strings.SplitN(raw, SubjectMarker, 3)[1]
	subject := strings.SplitN(afterSubject, BodyMarker, 2)[0]
	body := strings.SplitN(raw, BodyMarker, 3)[1]

	return Draft{
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body),
	}
}

// GenerationError is returned when the text-generation service is unreachable,
// unconfigured or answers with an error.
type GenerationError struct {
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return "Error generating email: " + e.Err.Error()
}

// Unwrap returns the underlying transport or API error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
