package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Request is a small fluent builder around http.Client used for the RPC
// calls to the backend gateway.
type Request struct {
	client  *http.Client
	url     string
	method  string
	body    io.Reader
	bodyErr error
	headers map[string]string
	args    map[string]string
	logger  *slog.Logger
}

func New(c *http.Client, logger *slog.Logger) *Request {
	return &Request{client: c, method: "GET", logger: logger}
}

func (r *Request) URL(url string) *Request {
	r.url = url

	return r
}

func (r *Request) Post() *Request {
	r.method = "POST"

	return r
}

func (r *Request) Headers(headers map[string]string) *Request {
	r.headers = headers

	return r
}

func (r *Request) Args(args map[string]string) *Request {
	r.args = args

	return r
}

func (r *Request) Body(body io.Reader) *Request {
	r.body = body

	return r
}

// JSONBody marshals obj as the request body and sets the content type.
func (r *Request) JSONBody(obj any) *Request {
	b, err := json.Marshal(obj)

	if err != nil {
		r.bodyErr = err

		return r
	}

	r.body = bytes.NewReader(b)

	if r.headers == nil {
		r.headers = make(map[string]string)
	}

	r.headers["Content-Type"] = "application/json"

	return r
}

func (r *Request) DoRes(ctx context.Context) (*http.Response, error) {
	if r.bodyErr != nil {
		return nil, r.bodyErr
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, err
	}

	req.Header.Del("User-Agent")

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if len(r.args) > 0 {
		q := req.URL.Query()

		for k, v := range r.args {
			q.Add(k, v)
		}

		req.URL.RawQuery = q.Encode()
	}

	res, err := r.client.Do(req)
	if err != nil {
		if r.logger != nil {
			r.logger.Info(fmt.Sprintf("%s %s - error %s", r.method, req.URL, err.Error()))
		}

		return res, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if r.logger != nil {
			r.logger.Warn(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
		}

		return res, fmt.Errorf("status is %s", res.Status)
	}

	if r.logger != nil {
		r.logger.Debug(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
	}

	return res, nil
}

func (r *Request) Do(ctx context.Context) (io.ReadCloser, error) {
	res, err := r.DoRes(ctx)

	if err != nil {
		return nil, err
	}

	if res.Body == nil {
		return nil, fmt.Errorf("null body")
	}

	return res.Body, nil
}

// GetJSON runs the request and decodes the response body into obj.
func (r *Request) GetJSON(ctx context.Context, obj any) error {
	b, err := r.Do(ctx)

	if err != nil {
		return err
	}

	defer b.Close()

	dec := json.NewDecoder(b)

	return dec.Decode(obj)
}
