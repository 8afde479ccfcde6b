package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// PrintRequest describes a single print-to-PDF render job
type PrintRequest struct {
	RequestID string        `json:"request_id"`
	URL       string        `json:"url"`
	Timeout   time.Duration `json:"timeout"` // hard render timeout
}

// PrintResult is the outcome of a print-to-PDF render
type PrintResult struct {
	RequestID  string        `json:"request_id"`
	ChromeID   string        `json:"chrome_id"`
	PDF        []byte        `json:"-"`
	PDFSize    int           `json:"pdf_size"`
	StatusCode int           `json:"status_code"` // HTTP status of the target navigation, 0 if unknown
	FinalURL   string        `json:"final_url"`
	RenderTime time.Duration `json:"render_time"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Pipeline stage identifiers used in logs and metrics
const (
	StageValidate  = "validate"
	StageRender    = "render"
	StageExtract   = "extract"
	StageSummarize = "summarize"
)

// Outcome classifies a finished pipeline run
type Outcome int

const (
	// OutcomeSummary means the pipeline produced a summary
	OutcomeSummary Outcome = iota
	// OutcomeInvalidURL means the input never parsed as an absolute URL
	OutcomeInvalidURL
	// OutcomeNoText means rendering or text extraction failed
	OutcomeNoText
	// OutcomeNoSummary means the completion call failed
	OutcomeNoSummary
)

// String returns the metrics label for an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSummary:
		return "summary"
	case OutcomeInvalidURL:
		return "invalid_url"
	case OutcomeNoText:
		return "no_text"
	case OutcomeNoSummary:
		return "no_summary"
	default:
		return "unknown"
	}
}

// Duration wraps time.Duration with extended YAML parsing support for days and weeks
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for extended duration formats
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	// Try standard parsing first (handles: ns, us, ms, s, m, h)
	dur, err := time.ParseDuration(s)
	if err == nil {
		*d = Duration(dur)
		return nil
	}

	// Parse extended formats: d (days), w (weeks)
	dur, err = parseExtendedDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Duration.
// Accepts both numbers (nanoseconds, backward-compatible) and strings ("15s", "24h", "30d", "2w").
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ns int64
	if err := json.Unmarshal(data, &ns); err == nil {
		*d = Duration(ns)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or number, got %s", string(data))
	}

	dur, err := time.ParseDuration(s)
	if err == nil {
		*d = Duration(dur)
		return nil
	}

	dur, err = parseExtendedDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON implements json.Marshaler for Duration.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ToDuration converts types.Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer for Duration
func (d Duration) String() string {
	return time.Duration(d).String()
}

// parseExtendedDuration parses duration strings with d (days) and w (weeks) suffixes
func parseExtendedDuration(s string) (time.Duration, error) {
	// Regex: optional sign, number (int or float), suffix (d or w)
	re := regexp.MustCompile(`^(-?)(\d+(?:\.\d+)?)(d|w)$`)
	matches := re.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid format, expected format like '30d' or '2w'")
	}

	sign := matches[1]
	valueStr := matches[2]
	suffix := matches[3]

	// Parse the numeric value
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	// Apply sign
	if sign == "-" {
		value = -value
	}

	// Convert to time.Duration based on suffix
	var duration time.Duration
	switch suffix {
	case "d":
		duration = time.Duration(value * 24 * float64(time.Hour))
	case "w":
		duration = time.Duration(value * 7 * 24 * float64(time.Hour))
	default:
		return 0, fmt.Errorf("unknown suffix %q", suffix)
	}

	return duration, nil
}
