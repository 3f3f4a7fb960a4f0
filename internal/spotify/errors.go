package spotify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coralsong/spotify-mcp/internal/shared"
)

// APIError is a Web API failure that matched no known error category.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("spotify API error: status %d", e.Status)
}

// apiErrorBody is the envelope the Web API wraps failures in.
type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// decodeAPIError reads a non-2xx response body and classifies the failure.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope apiErrorBody
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	return classify(&APIError{
		Status:  resp.StatusCode,
		Reason:  envelope.Error.Reason,
		Message: message,
	})
}

// classify maps a Web API failure onto the sentinel errors in the shared
// package. The structured reason code wins; matching message substrings
// is a best-effort fallback, and anything unmatched surfaces as the raw
// [APIError].
func classify(apiErr *APIError) error {
	detail := apiErr.Message
	if detail == "" {
		detail = fmt.Sprintf("status %d", apiErr.Status)
	}

	switch apiErr.Reason {
	case "NO_ACTIVE_DEVICE":
		return fmt.Errorf("%w: %s", shared.ErrNoActiveDevice, detail)
	case "PREMIUM_REQUIRED":
		return fmt.Errorf("%w: %s", shared.ErrPremiumRequired, detail)
	}

	text := strings.ToUpper(apiErr.Message)
	switch {
	case strings.Contains(text, "NO_ACTIVE_DEVICE") || strings.Contains(text, "NO ACTIVE DEVICE"):
		return fmt.Errorf("%w: %s", shared.ErrNoActiveDevice, detail)
	case strings.Contains(text, "NOT_PREMIUM") || strings.Contains(text, "PREMIUM"):
		return fmt.Errorf("%w: %s", shared.ErrPremiumRequired, detail)
	case strings.Contains(text, "PERMISSION"):
		return fmt.Errorf("%w: %s", shared.ErrMissingPermission, detail)
	}

	return apiErr
}

// playlistErr rewrites a 404 from a playlist endpoint as a missing
// playlist, keeping the requested id in the message.
func playlistErr(err error, idOrURI string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, ResourceID(idOrURI))
	}
	return err
}
