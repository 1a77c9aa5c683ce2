package resolve

import (
	"context"
	"testing"

	"lacquer/internal/mediaserver"
)

func TestNormalizeAudioCodec(t *testing.T) {
	cases := []struct {
		codec   string
		profile string
		want    string
	}{
		{"truehd", "Dolby TrueHD + Dolby Atmos", "truehd-atmos"},
		{"truehd", "", "truehd"},
		{"eac3", "Dolby Digital Plus + Dolby Atmos", "eac3-atmos"},
		{"dts", "DTS:X", "dts-x"},
		{"dts", "DTS-HD MA", "dts-hd-ma"},
		{"dts", "DTS-HD", "dts-hd"},
		{"dts", "", "dts"},
		{"AAC", "", "aac"},
	}
	for _, tc := range cases {
		if got := normalizeAudioCodec(tc.codec, tc.profile); got != tc.want {
			t.Errorf("normalizeAudioCodec(%q, %q) = %q, want %q", tc.codec, tc.profile, got, tc.want)
		}
	}
}

func TestResolutionValue(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{3840, 2160, "2160p"},
		{3840, 1608, "2160p"}, // scope aspect, height alone would mislead
		{1920, 1080, "1080p"},
		{1920, 800, "1080p"},
		{1280, 720, "720p"},
		{720, 480, "480p"},
		{7680, 4320, "4320p"},
	}
	for _, tc := range cases {
		if got := resolutionValue(tc.width, tc.height); got != tc.want {
			t.Errorf("resolutionValue(%d, %d) = %q, want %q", tc.width, tc.height, got, tc.want)
		}
	}
}

func TestClassifyAwards(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Won 7 Oscars. 21 wins & 42 nominations total", "oscars"},
		{"Won 2 Primetime Emmys", "emmys"},
		{"Won 1 Golden Globe", "golden-globes"},
		{"Won 3 BAFTA Film Awards", "bafta"},
		{"Nominated for the Palme d'Or at Cannes", "cannes"},
		{"4 wins & 12 nominations", "wins"},
	}
	for _, tc := range cases {
		if got := classifyAwards(tc.text); got != tc.want {
			t.Errorf("classifyAwards(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestStreamProvidersRequireStreams(t *testing.T) {
	item := &mediaserver.Item{ID: "1", Name: "Bare"}
	if _, err := (streamAudioProvider{}).Fetch(context.Background(), item); err == nil {
		t.Error("expected error for item without audio stream")
	}
	if _, err := (streamResolutionProvider{}).Fetch(context.Background(), item); err == nil {
		t.Error("expected error for item without video stream")
	}

	item.MediaStreams = []mediaserver.MediaStream{
		{Type: "Video", Codec: "hevc", Width: 3840, Height: 2160},
		{Type: "Audio", Codec: "truehd", Profile: "Dolby TrueHD + Dolby Atmos", Channels: 8},
	}
	audio, err := (streamAudioProvider{}).Fetch(context.Background(), item)
	if err != nil || audio.Value != "truehd-atmos" {
		t.Errorf("audio fetch = %+v, %v", audio, err)
	}
	video, err := (streamResolutionProvider{}).Fetch(context.Background(), item)
	if err != nil || video.Value != "2160p" {
		t.Errorf("resolution fetch = %+v, %v", video, err)
	}
}
