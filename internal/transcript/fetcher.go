package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"ytchat/internal/domain"
)

// YouTube transcript fetching via the ANDROID Innertube /player endpoint:
// POST /player → captionTracks → timedtext XML → ordered segments.

const (
	defaultPlayerURL = "https://www.youtube.com/youtubei/v1/player"
	androidVersion   = "20.10.38"
	androidUA        = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 11) gzip"
)

// Typed fetch failures. Callers match with errors.Is; anything else is a
// generic transport/decode failure.
var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found for the requested languages")
)

// Client fetches video transcripts. Calls are synchronous and never retried;
// the timeout lives in the underlying HTTP client.
type Client struct {
	http      *http.Client
	playerURL string
}

// NewClient creates a transcript client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		playerURL: defaultPlayerURL,
	}
}

type playerRequest struct {
	VideoID        string    `json:"videoId"`
	Context        playerCtx `json:"context"`
	RacyCheckOk    bool      `json:"racyCheckOk"`
	ContentCheckOk bool      `json:"contentCheckOk"`
}

type playerCtx struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// Fetch returns the ordered transcript segments of a video in the first
// matching preferred language.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) ([]domain.Segment, error) {
	body, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerCtx{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.playerURL+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube player: unexpected status %s", resp.Status)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if player.Captions == nil {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, player.PlayabilityStatus.Reason)
		}
		return nil, ErrTranscriptsDisabled
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	track, ok := pickTrack(tracks, languages)
	if !ok {
		return nil, ErrNoTranscriptFound
	}
	return c.fetchTimedText(ctx, track.BaseURL)
}

// pickTrack selects the best caption track for the preferred languages:
// manual track in a preferred language, then auto-generated track in a
// preferred language, then any track whose code prefix-matches a preference.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if strings.HasPrefix(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]domain.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", androidUA)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timedtext: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// parseTimedText converts a timedtext XML document into ordered segments.
// Caption text is HTML-escaped on the wire and may contain line breaks.
func parseTimedText(data []byte) ([]domain.Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	segments := make([]domain.Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := html.UnescapeString(line.Text)
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Text:     text,
			Start:    line.Start,
			Duration: line.Dur,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: transcript is empty", ErrNoTranscriptFound)
	}
	return segments, nil
}

// JoinSegments concatenates segment texts into a single transcript string,
// separated by single spaces.
func JoinSegments(segments []domain.Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}
