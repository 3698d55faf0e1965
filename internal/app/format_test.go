package app

import (
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/senfoni/internal/cache"
	"github.com/llehouerou/senfoni/internal/interject"
	"github.com/llehouerou/senfoni/internal/media"
	"github.com/llehouerou/senfoni/internal/playback"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{9 * time.Second, "0:09"},
		{75*time.Second + 900*time.Millisecond, "1:15"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.d); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Song", 40, "Song"},
		{"exact", strings.Repeat("a", 40), 40, strings.Repeat("a", 40)},
		{"long", strings.Repeat("a", 41), 40, strings.Repeat("a", 40) + "..."},
		{"counts runes", "şarkı söyle", 5, "şarkı..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestPresence(t *testing.T) {
	if got := presence(playback.Status{}); got != "Idle..." {
		t.Errorf("idle presence = %q", got)
	}

	exact := strings.Repeat("b", 100)
	if got := presence(playback.Status{Track: &media.Track{Title: exact}}); got != exact {
		t.Errorf("100-rune title should not be cut, got %d runes", len(got))
	}

	long := strings.Repeat("c", 101)
	got := presence(playback.Status{Track: &media.Track{Title: long}})
	if got != strings.Repeat("c", 97)+"..." {
		t.Errorf("presence(101 runes) = %q", got)
	}
}

func TestStatusLine(t *testing.T) {
	st := playback.Status{
		State:     playback.StatePaused,
		Track:     &media.Track{Title: "Song", Duration: 3 * time.Minute},
		Elapsed:   61 * time.Second,
		FromCache: true,
		Volume:    0.25,
		Loop:      true,
		QueueLen:  2,
	}
	want := "|| Song [1:01 / 3:00] cached | vol 25% | loop | 2 queued"
	if got := statusLine(st); got != want {
		t.Errorf("statusLine() = %q, want %q", got, want)
	}

	st = playback.Status{
		State:  playback.StatePlaying,
		Track:  &media.Track{Title: "Live"},
		Volume: 1,
	}
	if got := statusLine(st); got != "> Live [0:00] | vol 100%" {
		t.Errorf("statusLine(live) = %q", got)
	}
}

func TestUsageLine(t *testing.T) {
	got := usageLine(cache.Usage{Files: 1200, Bytes: 48_000_000})
	if got != "Cache: 1,200 files, 48 MB" {
		t.Errorf("usageLine() = %q", got)
	}
}

func TestParseSeek(t *testing.T) {
	d := 200 * time.Second
	tests := []struct {
		arg     string
		want    float64
		wantErr bool
	}{
		{"50", 0.5, false},
		{"25%", 0.25, false},
		{"1:40", 0.5, false},
		{"0:00", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1:x", 0, true},
		{"1:2:3:4", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSeek(tt.arg, d)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSeek(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSeek(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestParseSay(t *testing.T) {
	tests := []struct {
		args       string
		wantLang   interject.Language
		wantGender interject.Gender
		wantText   string
	}{
		{"hello there", interject.LanguageAuto, interject.GenderFemale, "hello there"},
		{"en hello", interject.LanguageEnglish, interject.GenderFemale, "hello"},
		{"male tr selam", interject.LanguageTurkish, interject.GenderMale, "selam"},
		{"tr", interject.LanguageTurkish, interject.GenderFemale, ""},
		{"female female hi", interject.LanguageAuto, interject.GenderFemale, "hi"},
	}
	for _, tt := range tests {
		lang, gender, text := parseSay(tt.args)
		if lang != tt.wantLang || gender != tt.wantGender || text != tt.wantText {
			t.Errorf("parseSay(%q) = (%v, %v, %q), want (%v, %v, %q)",
				tt.args, lang, gender, text, tt.wantLang, tt.wantGender, tt.wantText)
		}
	}
}
