package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the AudD music recognition API.
	DefaultEndpoint = "https://api.audd.io/"

	// DefaultTimeout bounds a single recognition call.
	DefaultTimeout = 15 * time.Second
)

// AudD API error codes we care about. See https://docs.audd.io/.
const (
	auddWrongToken   = 900
	auddLimitReached = 901
)

// AudDClient identifies audio samples through the AudD API.
type AudDClient struct {
	APIToken   string
	Endpoint   string
	HTTPClient *http.Client
}

// NewAudDClient returns a client with the default endpoint and timeout.
func NewAudDClient(apiToken string) *AudDClient {
	return &AudDClient{
		APIToken:   apiToken,
		Endpoint:   DefaultEndpoint,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type auddResponse struct {
	Status string `json:"status"`
	Result *struct {
		Title    string   `json:"title"`
		Artist   string   `json:"artist"`
		Album    string   `json:"album"`
		SongLink string   `json:"song_link"`
		Score    *float64 `json:"score"`
	} `json:"result"`
	Error *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
}

// Identify submits the sample to AudD and returns the single candidate
// identification, ErrNotRecognized, or an *Error.
func (c *AudDClient) Identify(ctx context.Context, sample Sample) (*RawIdentification, error) {
	if err := ValidateSample(sample); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("api_token", c.APIToken); err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}
	part, err := writer.CreateFormFile("file", "sample."+sample.Format)
	if err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}
	if _, err := part.Write(sample.Data); err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return nil, &Error{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Network failures and timeouts are worth retrying; the caller's
		// context decides when to stop.
		return nil, &Error{Op: "call audd", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Op: "call audd", Retryable: true, Err: fmt.Errorf("rate limited (status %d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Op: "call audd", Err: fmt.Errorf("authentication failed (status %d)", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, &Error{Op: "call audd", Retryable: true, Err: fmt.Errorf("server error (status %d)", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Op: "call audd", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read response", Retryable: true, Err: err}
	}

	var decoded auddResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &Error{Op: "decode response", Err: err}
	}

	if decoded.Status != "success" {
		if decoded.Error == nil {
			return nil, &Error{Op: "decode response", Err: fmt.Errorf("status %q with no error detail", decoded.Status)}
		}
		switch decoded.Error.ErrorCode {
		case auddLimitReached:
			return nil, &Error{Op: "call audd", Retryable: true, Err: fmt.Errorf("recognition limit reached: %s", decoded.Error.ErrorMessage)}
		case auddWrongToken:
			return nil, &Error{Op: "call audd", Err: fmt.Errorf("wrong api token: %s", decoded.Error.ErrorMessage)}
		default:
			return nil, &Error{Op: "call audd", Err: fmt.Errorf("error %d: %s", decoded.Error.ErrorCode, decoded.Error.ErrorMessage)}
		}
	}

	// A successful response with a null or incomplete result means the
	// provider found no candidate.
	if decoded.Result == nil || decoded.Result.Title == "" || decoded.Result.Artist == "" {
		return nil, ErrNotRecognized
	}

	raw := &RawIdentification{
		Title:           decoded.Result.Title,
		Artist:          decoded.Result.Artist,
		Album:           decoded.Result.Album,
		ProviderTrackID: decoded.Result.SongLink,
	}
	if decoded.Result.Score != nil {
		confidence := *decoded.Result.Score / 100
		raw.Confidence = &confidence
	}
	return raw, nil
}
