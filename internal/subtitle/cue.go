package subtitle

import "strings"

// Cue is a single timed caption. The text payload may arrive either as a
// single string or as a list of fragments; Parts takes precedence over Text
// when non-empty.
type Cue struct {
	Start float64 // seconds
	End   float64 // seconds
	Text  string
	Parts []string
}

// Normalized collapses the payload into one trimmed string. Cues that come
// back empty are dropped by the pipeline rather than treated as errors.
func (c Cue) Normalized() string {
	if len(c.Parts) > 0 {
		kept := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		return strings.Join(kept, " ")
	}
	return strings.TrimSpace(c.Text)
}

// Duration returns the cue's display duration in seconds
func (c Cue) Duration() float64 {
	return c.End - c.Start
}
