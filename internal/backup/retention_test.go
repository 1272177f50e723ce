package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/schedsim/internal/store"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func infos(ages ...time.Duration) []ArchiveInfo {
	out := make([]ArchiveInfo, len(ages))
	for i, age := range ages {
		out[i] = ArchiveInfo{
			Path:      filepath.Join("/b", string(rune('a'+i))),
			CreatedAt: now.Add(-age),
			Size:      500,
		}
	}
	return out
}

func TestPolicies(t *testing.T) {
	archives := infos(time.Hour, 12*time.Hour, 48*time.Hour, 720*time.Hour)

	tests := []struct {
		name   string
		policy RetentionPolicy
		want   int
	}{
		{"count keeps n", &CountPolicy{MaxCount: 3}, 3},
		{"count with fewer", &CountPolicy{MaxCount: 10}, 4},
		{"age", &AgePolicy{MaxAge: 24 * time.Hour, Now: func() time.Time { return now }}, 2},
		{"size", &SizePolicy{MaxTotalBytes: 1200}, 2},
		{"size keeps newest", &SizePolicy{MaxTotalBytes: 1}, 1},
		{"all", &AllPolicy{Policies: []RetentionPolicy{
			&CountPolicy{MaxCount: 3},
			&AgePolicy{MaxAge: 24 * time.Hour, Now: func() time.Time { return now }},
		}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep := tt.policy.Apply(archives)
			if len(keep) != tt.want {
				t.Fatalf("Apply() kept %d, want %d", len(keep), tt.want)
			}
			if keep[0].Path != archives[0].Path {
				t.Errorf("first kept = %s, want newest", keep[0].Path)
			}
		})
	}
}

func writeArchiveAt(t *testing.T, dir string, created time.Time) string {
	t.Helper()
	path := GeneratePath(dir, created)
	a := &Archive{Version: FormatVersion, CreatedAt: created, Runs: []store.Run{{ID: "x", Result: json.RawMessage(`{}`)}}}
	if err := WriteArchive(path, a, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListArchives(t *testing.T) {
	dir := t.TempDir()
	old := writeArchiveAt(t, dir, now.Add(-2*time.Hour))
	newest := writeArchiveAt(t, dir, now)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, filePrefix+"broken"+fileSuffix)
	if err := os.WriteFile(broken, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	archives, err := ListArchives(dir)
	if err != nil {
		t.Fatalf("ListArchives() error = %v", err)
	}
	if len(archives) != 3 {
		t.Fatalf("ListArchives() = %d entries, want 3", len(archives))
	}

	byPath := make(map[string]ArchiveInfo)
	for _, a := range archives {
		byPath[a.Path] = a
	}
	if !byPath[newest].Valid || byPath[newest].RunCount != 1 {
		t.Errorf("newest archive info = %+v", byPath[newest])
	}
	if byPath[broken].Valid {
		t.Error("broken archive reported valid")
	}

	// Valid archives are ordered by header time.
	var valid []string
	for _, a := range archives {
		if a.Valid {
			valid = append(valid, a.Path)
		}
	}
	if len(valid) != 2 || valid[0] != newest || valid[1] != old {
		t.Errorf("valid order = %v, want [%s %s]", valid, newest, old)
	}
}

func TestListArchives_MissingDir(t *testing.T) {
	archives, err := ListArchives(filepath.Join(t.TempDir(), "absent"))
	if err != nil || archives != nil {
		t.Errorf("ListArchives() = %v, %v; want nil, nil", archives, err)
	}
}

func TestApplyRetention(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 4 {
		paths = append(paths, writeArchiveAt(t, dir, now.Add(-time.Duration(i)*time.Hour)))
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 2})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted %d, want 2", len(deleted))
	}
	for _, p := range paths[:2] {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("kept archive %s missing: %v", filepath.Base(p), err)
		}
	}
	for _, p := range paths[2:] {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("archive %s should have been deleted", filepath.Base(p))
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"5y", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100B", 100, false},
		{"500KB", 500 << 10, false},
		{"10mb", 10 << 20, false},
		{"1GB", 1 << 30, false},
		{"", 0, true},
		{"12", 0, true},
		{"-1MB", 0, true},
		{"abcMB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
