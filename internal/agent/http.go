package agent

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

// endpoint is one remote API the companion calls. name prefixes errors so
// logs say which collaborator failed.
type endpoint struct {
	name       string
	httpClient *http.Client
}

func newEndpoint(name string, timeout time.Duration) endpoint {
	return endpoint{name: name, httpClient: &http.Client{Timeout: timeout}}
}

// send executes req and returns the body of a 200 response.
func (e endpoint) send(req *http.Request) ([]byte, error) {
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", e.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s response read failed: %w", e.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API error: %s - %s", e.name, resp.Status, string(body))
	}
	return body, nil
}

// postJSON sends in as JSON and decodes the reply into out.
func (e endpoint) postJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := e.send(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", e.name, err)
	}
	return nil
}

// upload posts data as a multipart file plus plain form fields and decodes
// the JSON reply into out.
func (e endpoint) upload(ctx context.Context, url, field, fileName string, data []byte, fields map[string]string, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile(field, fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := e.send(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", e.name, err)
	}
	return nil
}
