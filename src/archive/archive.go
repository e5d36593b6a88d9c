package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"scorewatch/src/catalog"
	"scorewatch/src/logutil"
	"scorewatch/src/session"
)

// Client talks to the remote score archive. A cookie jar keeps the session
// cookies the archive sets on the first authenticated call.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an archive client for the given base URL.
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}
}

// SongData identifies the chart a play result belongs to.
type SongData struct {
	Title    string `json:"name"`
	Composer string `json:"composer"`
}

// VersusEntry is one player's sub-result inside a versus play.
type VersusEntry struct {
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Song    SongData `json:"songData"`
	Button  int      `json:"button"`
	Pattern string   `json:"pattern"`
}

// PlayResult is the archive's verdict on one uploaded capture.
type PlayResult struct {
	IsVerified bool          `json:"isVerified"`
	ScreenType string        `json:"screenType"`
	Score      float64       `json:"score"`
	MaxCombo   int           `json:"maxCombo"`
	Song       SongData      `json:"songData"`
	Button     int           `json:"button"`
	Pattern    string        `json:"pattern"`
	VersusData []VersusEntry `json:"versusData,omitempty"`
}

type uploadResponse struct {
	PlayData *PlayResult `json:"playData"`
}

// Upload submits one capture to the archive and returns the parsed play
// result. One attempt, no retry; a capture cycle never uploads twice.
func (c *Client) Upload(ctx context.Context, game catalog.Game, imageBytes []byte, where string, sess session.Session) (*PlayResult, error) {
	id, token, err := sess.Credentials(game)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "capture.png")
	if err != nil {
		return nil, fmt.Errorf("archive: build upload body: %w", err)
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, fmt.Errorf("archive: build upload body: %w", err)
	}
	if err := mw.WriteField("where", where); err != nil {
		return nil, fmt.Errorf("archive: build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("archive: build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/client/open/score", &body)
	if err != nil {
		return nil, fmt.Errorf("archive: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", id+"|"+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Printf("Archive: upload rejected: auth=%s|%s status=%d body=%q",
			id, logutil.RedactToken(token), resp.StatusCode, snippet)
		return nil, fmt.Errorf("archive: upload status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("archive: decode response: %w", err)
	}
	if parsed.PlayData == nil {
		return nil, fmt.Errorf("archive: response missing playData")
	}
	return parsed.PlayData, nil
}

type topScoreResponse struct {
	Score float64 `json:"score"`
	Name  string  `json:"name"`
}

// TopScore fetches the community high score for one chart. Callers treat a
// failure as "no data"; it only ever trims a notification.
func (c *Client) TopScore(ctx context.Context, game catalog.Game, title string, button int, pattern string) (float64, error) {
	q := url.Values{}
	q.Set("game", string(game))
	q.Set("title", title)
	q.Set("button", strconv.Itoa(button))
	q.Set("pattern", pattern)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/client/open/top?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("archive: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("archive: top score: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("archive: top score status %d", resp.StatusCode)
	}
	var parsed topScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("archive: decode top score: %w", err)
	}
	return parsed.Score, nil
}
