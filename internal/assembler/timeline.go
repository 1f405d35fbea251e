package assembler

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Segment is one image held on screen for Frames frames.
type Segment struct {
	Index  int
	Frames int
}

// Plan spreads round(duration*fps) frames (at least one) evenly across count
// images in order. Leftover frames go to the earliest images. When there are
// fewer frames than images, the trailing images get no frames and are left
// out, so the sum of all segments always matches the audio length.
func Plan(duration time.Duration, fps, count int) []Segment {
	if count <= 0 || fps <= 0 {
		return nil
	}
	total := int(math.Round(duration.Seconds() * float64(fps)))
	if total < 1 {
		total = 1
	}
	base, rem := total/count, total%count
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		frames := base
		if i < rem {
			frames++
		}
		if frames == 0 {
			break
		}
		segments = append(segments, Segment{Index: i, Frames: frames})
	}
	return segments
}

// TotalFrames sums the frames of all segments.
func TotalFrames(segments []Segment) int {
	total := 0
	for _, s := range segments {
		total += s.Frames
	}
	return total
}

// concatList renders an ffconcat script for the segments. files[i] is the
// local path of image i. The last file is listed twice because the concat
// demuxer ignores the duration of the final entry.
func concatList(segments []Segment, files []string, fps int) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(files[s.Index]))
		fmt.Fprintf(&b, "duration %.6f\n", float64(s.Frames)/float64(fps))
	}
	if n := len(segments); n > 0 {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(files[segments[n-1].Index]))
	}
	return b.String()
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
