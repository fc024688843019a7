package imgur

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/logger"
)

// Options configures a Client
type Options struct {
	ClientID   string
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the Imgur API v3 with application (Client-ID) auth.
// Failures are returned as *errors.Error and never retried.
type Client struct {
	httpClient *http.Client
	clientID   string
	baseURL    string
	userAgent  string
	logger     logger.Logger
}

// NewClient creates a new Imgur API client
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.ClientID == "" {
		return nil, apperrors.New(apperrors.ErrorTypeConfig, 0, "imgur client id is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		httpClient: opts.HTTPClient,
		clientID:   opts.ClientID,
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		logger:     log,
	}, nil
}

// doRequest performs an HTTP GET with the client's headers
func (c *Client) doRequest(ctx context.Context, url string, authorize bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeUnknown, err, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	if authorize {
		req.Header.Set("Authorization", "Client-ID "+c.clientID)
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, apperrors.Wrap(apperrors.ErrorTypeNetwork, err, "")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// getData performs an API call and decodes the envelope's data into target
func (c *Client) getData(ctx context.Context, url string, target interface{}) error {
	resp, err := c.doRequest(ctx, url, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeNetwork, err, fmt.Sprintf("failed to read response body: %v", err))
	}

	var env envelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil {
		if resp.StatusCode >= 400 {
			return apperrors.New(apperrors.TypeForStatus(resp.StatusCode), resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"body_preview": preview(body),
		})
		return apperrors.Wrap(apperrors.ErrorTypeParsing, jsonErr, fmt.Sprintf("failed to parse JSON: %v", jsonErr))
	}

	if resp.StatusCode >= 400 || !env.Success {
		status := env.Status
		if status == 0 {
			status = resp.StatusCode
		}
		msg := errorMessage(env.Data)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return apperrors.New(apperrors.TypeForStatus(status), status, msg)
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeParsing, err, fmt.Sprintf("failed to parse data: %v", err))
	}
	return nil
}

// GetAlbum fetches album metadata
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	var album Album
	if err := c.getData(ctx, AlbumURL(c.baseURL, albumID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// GetAlbumImages fetches the ordered image list of an album
func (c *Client) GetAlbumImages(ctx context.Context, albumID string) ([]Image, error) {
	var images []Image
	if err := c.getData(ctx, AlbumImagesURL(c.baseURL, albumID), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// Open starts a GET of an image link and returns its body. The caller must
// close it. Transport failures are ErrorTypeNetwork; non-2xx responses are
// ErrorTypeHTTPStatus carrying the status code.
func (c *Client) Open(ctx context.Context, link string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, link, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apperrors.New(apperrors.ErrorTypeHTTPStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return resp.Body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
