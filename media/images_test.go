package media

import (
	"regexp"
	"testing"
	"time"

	"platinumlist-scraper/models"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"landscape shrink", 1920, 1080, 1280, 720, 1280, 720},
		{"portrait shrink", 1080, 1920, 480, 360, 202, 360},
		{"no upscale", 320, 240, 480, 360, 320, 240},
		{"exact fit", 480, 360, 480, 360, 480, 360},
		{"width bound", 4000, 1000, 1280, 720, 1280, 320},
		{"degenerate", 0, 0, 480, 360, 0, 0},
	}

	for _, tt := range tests {
		gotW, gotH := FitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("%s: FitWithin(%d,%d,%d,%d) = (%d,%d); want (%d,%d)",
				tt.name, tt.w, tt.h, tt.maxW, tt.maxH, gotW, gotH, tt.wantW, tt.wantH)
		}
		if gotW > tt.maxW || gotH > tt.maxH {
			t.Errorf("%s: result exceeds bounding box", tt.name)
		}
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.UnixMilli(1756600000000)
	key := ObjectKey(models.EntityAttraction, "lost-paradise", "cover", ts)

	want := "processed/attraction/lost-paradise-cover-1756600000000.webp"
	if key != want {
		t.Errorf("ObjectKey = %q; want %q", key, want)
	}

	shape := regexp.MustCompile(`^processed/[a-z]+/[a-z0-9-]+-(thumbnail|cover)-\d+\.webp$`)
	if !shape.MatchString(key) {
		t.Errorf("ObjectKey %q does not match the storage key pattern", key)
	}
}
