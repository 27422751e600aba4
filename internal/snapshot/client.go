// Package snapshot implements the Supplemented Feature described in
// SPEC_FULL.md: an optional second producer that polls an HTTP(S)
// snapshot URL instead of reading concatenated frames from stdin,
// publishing each fetched JPEG into the same broadcast.Slot the stdin
// Segmenter would otherwise feed. It is grounded on the teacher's
// internal/client/client.go go-resty wrapper (auth token and cookie
// handling) and internal/utils/validation.go (JPEG sanity check), which
// the teacher used to poll a single camera's snapshot endpoint.
package snapshot

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mjpegfan/streameye/internal/jpeg"
)

// Client fetches one JPEG snapshot per call from an upstream HTTP(S)
// endpoint, carrying an optional bearer token and/or cookie the same way
// the teacher's camera client did.
type Client struct {
	resty       *resty.Client
	authToken   string
	cookieName  string
	cookieValue string
}

// NewClient builds a Client. token and cookie follow the teacher's
// Authorization config: cookie may be "name=value" or a bare value, in
// which case it is sent under the default cookie name "SessionId".
func NewClient(token, cookie string) *Client {
	restyClient := resty.New().
		SetTimeout(5*time.Second).
		SetHeader("User-Agent", "streameye-snapshot/1").
		SetHeader("Accept", "image/jpeg").
		SetRetryCount(2).
		SetRetryWaitTime(50 * time.Millisecond).
		SetDisableWarn(true)

	restyClient.SetTransport(&http.Transport{
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	})

	cookieName, cookieValue := parseCookie(cookie)
	return &Client{
		resty:       restyClient,
		authToken:   token,
		cookieName:  cookieName,
		cookieValue: cookieValue,
	}
}

// Fetch retrieves one snapshot from url and returns its body. It does
// not validate the JPEG; callers use jpeg.IsValid or IsPlausibleJPEG on
// the result.
func (c *Client) Fetch(url string) ([]byte, error) {
	req := c.resty.R()
	if c.authToken != "" {
		req.SetHeader("Authorization", c.authToken)
	}
	if c.cookieValue != "" {
		req.SetCookie(&http.Cookie{Name: c.cookieName, Value: c.cookieValue})
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching snapshot: server returned %s", resp.Status())
	}
	return resp.Body(), nil
}

func parseCookie(s string) (name, value string) {
	if s == "" {
		return "", ""
	}
	if strings.Contains(s, "=") {
		parts := strings.SplitN(s, "=", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "SessionId", s
}

// IsPlausibleJPEG applies the teacher's extra minimum-size heuristic on
// top of jpeg.IsValid's marker check, since a snapshot endpoint can
// return a tiny, marker-valid but corrupt placeholder image.
func IsPlausibleJPEG(data []byte) bool {
	return jpeg.IsValid(data) && len(data) >= 1000
}
