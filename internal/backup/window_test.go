package backup

import (
	"strings"
	"testing"
	"time"
)

func TestNewWindow(t *testing.T) {
	t.Run("covers whole days in UTC", func(t *testing.T) {
		w, err := NewWindow(
			time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC),
		)
		if err != nil {
			t.Fatalf("NewWindow() error = %v", err)
		}
		if got := w.StartBound(); got != "2024-01-01T00:00:00.000000Z" {
			t.Errorf("StartBound() = %q", got)
		}
		if got := w.EndBound(); got != "2024-01-31T23:59:59.999999Z" {
			t.Errorf("EndBound() = %q", got)
		}
	})

	t.Run("converts other locations to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		w, err := NewWindow(time.Date(2024, 3, 10, 0, 0, 0, 0, loc), time.Date(2024, 3, 10, 0, 0, 0, 0, loc))
		if err != nil {
			t.Fatalf("NewWindow() error = %v", err)
		}
		if got := w.StartBound(); got != "2024-03-09T22:00:00.000000Z" {
			t.Errorf("StartBound() = %q", got)
		}
		if got := w.EndBound(); got != "2024-03-10T21:59:59.999999Z" {
			t.Errorf("EndBound() = %q", got)
		}
	})

	t.Run("single day is valid", func(t *testing.T) {
		d := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
		if _, err := NewWindow(d, d); err != nil {
			t.Errorf("NewWindow() error = %v", err)
		}
	})

	t.Run("rejects end before start", func(t *testing.T) {
		_, err := NewWindow(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		if err == nil || !strings.Contains(err.Error(), "before start date") {
			t.Errorf("NewWindow() error = %v, want end-before-start error", err)
		}
	})
}

func TestWindow_Contains(t *testing.T) {
	w, err := NewWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"start bound", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"end bound", time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC), true},
		{"middle", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), true},
		{"just before", time.Date(2023, 12, 31, 23, 59, 59, 999999000, time.UTC), false},
		{"just after", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2010-01-01", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if !got.Equal(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate() = %v", got)
	}

	for _, bad := range []string{"2010/01/01", "01-01-2010", "2010-13-01", ""} {
		if _, err := ParseDate(bad, time.UTC); err == nil {
			t.Errorf("ParseDate(%q) expected error", bad)
		}
	}
}

func TestFilter_String(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name: "files in window",
			filter: Filter{
				ParentID:     "root",
				NotMimeType:  MimeFolder,
				ModifiedFrom: "2024-01-01T00:00:00.000000Z",
				ModifiedTo:   "2024-01-31T23:59:59.999999Z",
			},
			want: "'root' in parents and mimeType != 'application/vnd.google-apps.folder' and " +
				"modifiedTime >= '2024-01-01T00:00:00.000000Z' and modifiedTime <= '2024-01-31T23:59:59.999999Z' and trashed = false",
		},
		{
			name:   "subfolders",
			filter: Filter{ParentID: "f1", MimeType: MimeFolder},
			want:   "'f1' in parents and mimeType = 'application/vnd.google-apps.folder' and trashed = false",
		},
		{
			name:   "quotes are escaped",
			filter: Filter{ParentID: `it's`},
			want:   `'it\'s' in parents and trashed = false`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}
