package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/llehouerou/senfoni/internal/cache"
	"github.com/llehouerou/senfoni/internal/playback"
)

const (
	shortTitleLen = 40
	presenceLen   = 100
	idleText      = "Idle..."
)

// formatClock renders d as m:ss, or h:mm:ss from one hour.
func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func durationSuffix(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return " (" + formatClock(time.Duration(seconds)*time.Second) + ")"
}

// truncate keeps the first n runes of s and marks the cut with "...".
func truncate(s string, n int) string {
	if lo.RuneLength(s) <= n {
		return s
	}
	return lo.Substring(s, 0, uint(n)) + "..."
}

// presence is the one-line "listening to" text, at most 100 runes.
func presence(st playback.Status) string {
	if st.Track == nil {
		return idleText
	}
	if lo.RuneLength(st.Track.Title) > presenceLen {
		return truncate(st.Track.Title, presenceLen-3)
	}
	return st.Track.Title
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}

// statusLine renders the session status for the console.
func statusLine(st playback.Status) string {
	var b strings.Builder
	switch st.State {
	case playback.StatePlaying:
		b.WriteString("> ")
	case playback.StatePaused:
		b.WriteString("|| ")
	case playback.StateInterjected:
		b.WriteString("(announcement) ")
	}
	b.WriteString(presence(st))
	if st.Track != nil {
		b.WriteString(" [" + formatClock(st.Elapsed))
		if st.Track.Duration > 0 {
			b.WriteString(" / " + formatClock(st.Track.Duration))
		}
		b.WriteString("]")
		if st.FromCache {
			b.WriteString(" cached")
		}
	}
	fmt.Fprintf(&b, " | vol %d%%", percent(st.Volume))
	if st.Loop {
		b.WriteString(" | loop")
	}
	if st.QueueLen > 0 {
		fmt.Fprintf(&b, " | %d queued", st.QueueLen)
	}
	return b.String()
}

// usageLine renders cache usage, e.g. "Cache: 12 files, 48 MB".
func usageLine(u cache.Usage) string {
	return fmt.Sprintf("Cache: %s files, %s", humanize.Comma(int64(u.Files)), humanize.Bytes(uint64(max(u.Bytes, 0))))
}
