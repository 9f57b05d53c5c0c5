package constants

import "testing"

func TestMapExtToFormat(t *testing.T) {
	cases := []struct {
		ext  string
		want FileFormat
	}{
		{".pdf", PDF},
		{"PDF", PDF},
		{".JPG", IMAGE},
		{"jpeg", IMAGE},
		{".png", IMAGE},
		{"heic", IMAGE},
		{".txt", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MapExtToFormat(tc.ext); got != tc.want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}

func TestIsHEICExt(t *testing.T) {
	if !IsHEICExt(".HEIC") || !IsHEICExt("heif") {
		t.Error("heic extensions not recognized")
	}
	if IsHEICExt(".png") {
		t.Error("png misrecognized as heic")
	}
}
