package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytchat/internal/domain"
)

func TestParseTimedText(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="1.5">Hello</text>
  <text start="1.5" dur="2.0">world &amp; friends</text>
  <text start="3.5" dur="1.0">
multi
line</text>
  <text start="4.5" dur="0.5"> </text>
</transcript>`)

	segments, err := parseTimedText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.Segment{
		{Text: "Hello", Start: 0.0, Duration: 1.5},
		{Text: "world & friends", Start: 1.5, Duration: 2.0},
		{Text: "multi line", Start: 3.5, Duration: 1.0},
	}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segments), len(want))
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segments[i], want[i])
		}
	}
}

func TestParseTimedTextEmpty(t *testing.T) {
	if _, err := parseTimedText([]byte(`<transcript></transcript>`)); !errors.Is(err, ErrNoTranscriptFound) {
		t.Errorf("empty transcript: got %v, want ErrNoTranscriptFound", err)
	}
	if _, err := parseTimedText([]byte(`<transcript><text start="0" dur="1">   </text></transcript>`)); !errors.Is(err, ErrNoTranscriptFound) {
		t.Errorf("blank-text transcript: got %v, want ErrNoTranscriptFound", err)
	}
	if _, err := parseTimedText([]byte(`not xml at {all`)); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func TestPickTrack(t *testing.T) {
	manualEN := captionTrack{BaseURL: "m-en", LanguageCode: "en"}
	autoEN := captionTrack{BaseURL: "a-en", LanguageCode: "en", Kind: "asr"}
	manualDE := captionTrack{BaseURL: "m-de", LanguageCode: "de"}
	autoENGB := captionTrack{BaseURL: "a-en-gb", LanguageCode: "en-GB", Kind: "asr"}

	tests := []struct {
		name      string
		tracks    []captionTrack
		languages []string
		want      string
		ok        bool
	}{
		{"manual preferred over auto", []captionTrack{autoEN, manualEN}, []string{"en"}, "m-en", true},
		{"auto when no manual", []captionTrack{autoEN, manualDE}, []string{"en"}, "a-en", true},
		{"first language wins", []captionTrack{manualDE, manualEN}, []string{"de", "en"}, "m-de", true},
		{"prefix match fallback", []captionTrack{autoENGB}, []string{"en"}, "a-en-gb", true},
		{"no match", []captionTrack{manualDE}, []string{"fr"}, "", false},
		{"default english", []captionTrack{manualEN}, nil, "m-en", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickTrack(tt.tracks, tt.languages)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.BaseURL != tt.want {
				t.Errorf("picked %q, want %q", got.BaseURL, tt.want)
			}
		})
	}
}

func TestJoinSegments(t *testing.T) {
	segments := []domain.Segment{{Text: "Hello"}, {Text: "world"}, {Text: "today"}}
	if got := JoinSegments(segments); got != "Hello world today" {
		t.Errorf("JoinSegments = %q, want %q", got, "Hello world today")
	}
	if got := JoinSegments(nil); got != "" {
		t.Errorf("JoinSegments(nil) = %q, want empty", got)
	}
}

func newTestClient(t *testing.T, player playerResponse, timedtext string) (*Client, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		if player.Captions == nil {
			json.NewEncoder(w).Encode(player)
			return
		}
		// caption URLs in the response point back at this server
		for i := range player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
			tr := &player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks[i]
			if tr.BaseURL != "" && tr.BaseURL[0] == '/' {
				tr.BaseURL = srv.URL + tr.BaseURL
			}
		}
		json.NewEncoder(w).Encode(player)
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timedtext)
	})
	c := NewClient(0)
	c.playerURL = srv.URL + "/player"
	return c, srv
}

func captionsOf(tracks ...captionTrack) playerResponse {
	var p playerResponse
	p.Captions = &struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	}{}
	p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks = tracks
	return p
}

func TestFetchSuccess(t *testing.T) {
	player := captionsOf(captionTrack{BaseURL: "/timedtext", LanguageCode: "en"})
	xml := `<transcript><text start="0" dur="1">Hello</text><text start="1" dur="1">world</text></transcript>`
	c, _ := newTestClient(t, player, xml)

	segments, err := c.Fetch(context.Background(), "ABC123", []string{"en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 || segments[0].Text != "Hello" || segments[1].Text != "world" {
		t.Errorf("unexpected segments: %+v", segments)
	}
}

func TestFetchDisabled(t *testing.T) {
	c, _ := newTestClient(t, playerResponse{}, "")
	_, err := c.Fetch(context.Background(), "ABC123", []string{"en"})
	if !errors.Is(err, ErrTranscriptsDisabled) {
		t.Errorf("got %v, want ErrTranscriptsDisabled", err)
	}
}

func TestFetchNoLanguageMatch(t *testing.T) {
	player := captionsOf(captionTrack{BaseURL: "/timedtext", LanguageCode: "de"})
	c, _ := newTestClient(t, player, "")
	_, err := c.Fetch(context.Background(), "ABC123", []string{"fr"})
	if !errors.Is(err, ErrNoTranscriptFound) {
		t.Errorf("got %v, want ErrNoTranscriptFound", err)
	}
}
