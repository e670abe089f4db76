package wm

import "testing"

func TestParseMinGeometry(t *testing.T) {
	tests := []struct {
		in      string
		want    MinGeometry
		wantErr bool
	}{
		{
			in:   "480x360-0-0",
			want: MinGeometry{Width: 480, Height: 360, OffsetX: 0, OffsetY: 0, XCorner: Right, YCorner: Bottom},
		},
		{
			in:   "100x200+10+20",
			want: MinGeometry{Width: 100, Height: 200, OffsetX: 10, OffsetY: 20, XCorner: Left, YCorner: Top},
		},
		{
			in:   "100x200+10-20",
			want: MinGeometry{Width: 100, Height: 200, OffsetX: 10, OffsetY: 20, XCorner: Left, YCorner: Bottom},
		},
		{
			in:   "100x200-10+20",
			want: MinGeometry{Width: 100, Height: 200, OffsetX: 10, OffsetY: 20, XCorner: Right, YCorner: Top},
		},
		{in: "bogus", wantErr: true},
		{in: "100x200", wantErr: true},
		{in: "100x200+10", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMinGeometry(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMinGeometry(%q): expected error, got none", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMinGeometry(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMinGeometry(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestMinGeometryAlignment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"480x360-0-0", "rb"},
		{"480x360+0+0", "lt"},
		{"480x360+0-0", "lb"},
		{"480x360-0+0", "rt"},
	}
	for _, tt := range tests {
		g, err := ParseMinGeometry(tt.in)
		if err != nil {
			t.Fatalf("ParseMinGeometry(%q): %v", tt.in, err)
		}
		if got := g.Alignment(); got != tt.want {
			t.Errorf("Alignment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMinGeometryPlace(t *testing.T) {
	root := Size{W: 1920, H: 1080}

	g, err := ParseMinGeometry("480x360-10-20")
	if err != nil {
		t.Fatal(err)
	}
	pos := g.Place(root)
	wantX := 1920 - 480 - 10
	wantY := 1080 - 360 - 20
	if pos.X != wantX || pos.Y != wantY {
		t.Errorf("Place() = %+v, want {%d %d}", pos, wantX, wantY)
	}

	g, err = ParseMinGeometry("480x360+0+0")
	if err != nil {
		t.Fatal(err)
	}
	pos = g.Place(root)
	if pos.X != 0 || pos.Y != 0 {
		t.Errorf("Place() = %+v, want {0 0}", pos)
	}
}
