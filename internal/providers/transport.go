package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

const fileField = "file"

// errMalformedResponse marks a 2xx response whose body is not a JSON object.
var errMalformedResponse = errors.New("malformed provider response")

// envelope holds the response fields the supported providers use. Fields of
// an unexpected type are left empty.
type envelope struct {
	Status  float64
	Message string
	Msg     string
	Result  string
	FileURL string
	URL     string
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("response body is null")
	}

	env := &envelope{
		Message: stringField(fields, "message"),
		Msg:     stringField(fields, "msg"),
		Result:  stringField(fields, "result"),
		FileURL: stringField(fields, "file_url"),
		URL:     stringField(fields, "url"),
	}
	if raw, ok := fields["status"]; ok {
		var status float64
		if err := json.Unmarshal(raw, &status); err == nil {
			env.Status = status
		}
	}

	return env, nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// statusError is returned for non-2xx HTTP responses.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// failureMessage picks the most specific text for a failed step: the
// provider's own message, the transport error, or invalid for a body of the
// wrong shape.
func failureMessage(err error, invalid string) string {
	if errors.Is(err, errMalformedResponse) {
		return invalid
	}
	return err.Error()
}

// postMultipart streams the form through a pipe so the file is never copied
// into a request buffer.
func postMultipart(
	ctx context.Context,
	client *http.Client,
	endpoint string,
	keyField string,
	key string,
	file []byte,
	fileName string,
) (*envelope, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		pw.CloseWithError(writeForm(mw, keyField, key, file, fileName))
	}()

	return do(client, req)
}

func writeForm(mw *multipart.Writer, keyField, key string, file []byte, fileName string) error {
	if err := mw.WriteField(keyField, key); err != nil {
		return fmt.Errorf("error writing form field: %w", err)
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(file)); err != nil {
		return fmt.Errorf("error writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("error closing multipart writer: %w", err)
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	return do(client, req)
}

func do(client *http.Client, req *http.Request) (*envelope, error) {
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		// The request URL may carry a credential in its query.
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, ue.Err
		}
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	env, decodeErr := decodeEnvelope(body)

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		se := &statusError{StatusCode: res.StatusCode}
		if decodeErr == nil {
			se.Message = env.Message
			if se.Message == "" {
				se.Message = env.Msg
			}
		}
		return nil, se
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedResponse, decodeErr)
	}

	return env, nil
}
