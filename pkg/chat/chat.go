// Package chat relays messages to the Apps Script chat endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Mode string

const (
	ModePost  Mode = "post"
	ModeJSONP Mode = "jsonp"
)

const (
	Timeout = 12 * time.Second

	NoReply      = "Sin respuesta."
	NetworkError = "Error de red."
)

var (
	ErrNoEndpoint = errors.New("chat endpoint not configured")
	ErrEmptyText  = errors.New("empty message")
	ErrBadReply   = errors.New("unreadable chat reply")
)

type request struct {
	Text    string `json:"text"`
	IDToken string `json:"idToken"`
	AppKey  string `json:"appKey"`
}

type response struct {
	Reply string `json:"reply"`
	Error string `json:"error"`
}

type Reply struct {
	Text    string       `json:"text"`
	Error   bool         `json:"error,omitempty"`
	Details []DetailLine `json:"details,omitempty"`
}

type Client struct {
	Endpoint string
	AppKey   string
	Mode     Mode
	HTTP     *http.Client
}

func NewClient(endpoint, appKey string, mode Mode) *Client {
	if mode != ModeJSONP {
		mode = ModePost
	}
	return &Client{
		Endpoint: endpoint,
		AppKey:   appKey,
		Mode:     mode,
		HTTP:     &http.Client{Timeout: Timeout},
	}
}

// Send forwards text with the caller's ID token and returns the reply.
// There is no retry; transport failures are returned as errors.
func (c *Client) Send(ctx context.Context, text, idToken string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyText
	}
	if c.Endpoint == "" {
		return Reply{}, ErrNoEndpoint
	}
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	body, err := json.Marshal(request{Text: text, IDToken: idToken, AppKey: c.AppKey})
	if err != nil {
		return Reply{}, err
	}

	var req *http.Request
	callback := ""
	if c.Mode == ModeJSONP {
		callback = "cb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return Reply{}, fmt.Errorf("chat endpoint: %w", err)
		}
		q := u.Query()
		q.Set("body", string(body))
		q.Set("callback", callback)
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return Reply{}, err
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
		if err != nil {
			return Reply{}, err
		}
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		log.WithField("mode", c.Mode).Errorf("Chat request failed: %v", err)
		return Reply{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Reply{}, err
	}
	if resp.StatusCode/100 != 2 {
		return Reply{}, fmt.Errorf("chat endpoint returned %s", resp.Status)
	}
	if callback != "" {
		raw = unwrapJSONP(raw, callback)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return toReply(r), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func toReply(r response) Reply {
	var out Reply
	switch {
	case r.Reply != "":
		out.Text = r.Reply
	case r.Error != "":
		out.Text = r.Error
		out.Error = true
	default:
		out.Text = NoReply
	}
	out.Details, _ = FormatReply(out.Text)
	return out
}

// unwrapJSONP strips `callback(...)` (with an optional trailing semicolon
// and leading comment) and returns the payload. Anything else is returned
// unchanged.
func unwrapJSONP(raw []byte, callback string) []byte {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "/**/")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, callback+"(") {
		return raw
	}
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return raw
	}
	return []byte(s[len(callback)+1 : len(s)-1])
}
