package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadSRT reads an SRT file into cues. The composition core consumes cues
// in memory; this loader only exists so the CLI can feed it from disk.
func LoadSRT(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open subtitle file")
	}
	defer f.Close()

	var (
		cues []Cue
		cur  *Cue
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))

		switch {
		case line == "":
			if cur != nil {
				cues = append(cues, *cur)
				cur = nil
			}
		case strings.Contains(line, "-->"):
			start, end, err := parseTimeRange(line)
			if err != nil {
				return nil, err
			}
			cur = &Cue{Start: start, End: end}
		case cur != nil:
			cur.Parts = append(cur.Parts, line)
		default:
			// sequence number, ignored
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read subtitle file")
	}
	if cur != nil {
		cues = append(cues, *cur)
	}

	return cues, nil
}

func parseTimeRange(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time range: %q", line)
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("malformed time range: %q", line)
	}
	end, err := parseTimestamp(fields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp converts HH:MM:SS,mmm (or HH:MM:SS.mmm) to seconds
func parseTimestamp(ts string) (float64, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	fields := strings.Split(ts, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("malformed timestamp: %q", ts)
	}

	hours, err1 := strconv.Atoi(fields[0])
	minutes, err2 := strconv.Atoi(fields[1])
	seconds, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("malformed timestamp: %q", ts)
	}

	return float64(hours*3600+minutes*60) + seconds, nil
}
