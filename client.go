// Package restconf is the RESTCONF (RFC 8040) client used by the CLI actioner
// to talk to the local management daemon.
package restconf

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL              string = "https://localhost"
	DefaultInsecure         bool   = true
	DefaultRestconfEndpoint string = "/restconf"
	RestconfDataEndpoint    string = "/data"
	YangDataJSON            string = "application/yang-data+json"
)

// Client is an HTTP RESTCONF client.
// Use restconf.NewClient to initiate a client.
type Client struct {
	// HttpClient is the *http.Client used for API requests.
	HttpClient *http.Client
	// Url is the management daemon url.
	Url string
	// Usr is the optional basic auth username.
	Usr string
	// Pwd is the optional basic auth password.
	Pwd string
	// Insecure determines if insecure https connections are allowed.
	// The default is true since the daemon listens on loopback only.
	Insecure bool
	// RestconfEndpoint is the RESTCONF API root.
	RestconfEndpoint string
	// UserAgent is sent with every request when set.
	UserAgent string
}

// NewClient creates a new RESTCONF HTTP client.
// Pass modifiers in to modify the behavior of the client, e.g.
//
//	client, _ := NewClient("https://localhost", true, RequestTimeout(120))
//
// There is no request timeout unless RequestTimeout is given; callers bound
// individual calls with the context they pass.
func NewClient(url string, insecure bool, mods ...func(*Client)) (Client, error) {
	if url == "" {
		url = DefaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Client{}, fmt.Errorf("invalid RESTCONF url %q: missing http(s) scheme", url)
	}
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
	}

	httpClient := http.Client{
		Transport: tr,
	}

	client := Client{
		HttpClient:       &httpClient,
		Url:              strings.TrimSuffix(url, "/"),
		Insecure:         insecure,
		RestconfEndpoint: DefaultRestconfEndpoint,
	}

	for _, mod := range mods {
		mod(&client)
	}
	return client, nil
}

// RequestTimeout sets an HTTP request timeout in seconds.
func RequestTimeout(x time.Duration) func(*Client) {
	return func(client *Client) {
		client.HttpClient.Timeout = x * time.Second
	}
}

// BasicAuth sets credentials sent with every request.
func BasicAuth(usr, pwd string) func(*Client) {
	return func(client *Client) {
		client.Usr = usr
		client.Pwd = pwd
	}
}

// Endpoint overrides the RESTCONF API root from the default of /restconf.
func Endpoint(path string) func(*Client) {
	return func(client *Client) {
		client.RestconfEndpoint = "/" + strings.Trim(path, "/")
	}
}

// UserAgent sets the User-Agent header.
func UserAgent(ua string) func(*Client) {
	return func(client *Client) {
		client.UserAgent = ua
	}
}

// NewReq creates a new Req request for this client.
// uri is relative to the RESTCONF endpoint; a uri that already starts with
// the endpoint is used as is.
func (client Client) NewReq(ctx context.Context, method, uri string, body io.Reader, mods ...func(*Req)) (Req, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := client.Url + client.resolveURI(uri)
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Req{}, fmt.Errorf("build %s request for %s: %w", method, target, err)
	}
	if client.Usr != "" {
		httpReq.SetBasicAuth(client.Usr, client.Pwd)
	}
	if body != nil && method != http.MethodDelete {
		httpReq.Header.Set("Content-Type", YangDataJSON)
	}
	httpReq.Header.Set("Accept", YangDataJSON)
	if client.UserAgent != "" {
		httpReq.Header.Set("User-Agent", client.UserAgent)
	}
	req := Req{
		HttpReq: httpReq,
	}
	for _, mod := range mods {
		mod(&req)
	}
	return req, nil
}

func (client Client) resolveURI(uri string) string {
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	if client.RestconfEndpoint == "" || strings.HasPrefix(uri, client.RestconfEndpoint+"/") {
		return uri
	}
	return client.RestconfEndpoint + uri
}

// Do makes a request.
// Requests for Do are built outside of the client, e.g.
//
//	req, _ := client.NewReq(ctx, "GET", "/data/openconfig-system:system/clock", nil)
//	res, err := client.Do(req)
//
// Every call is a single attempt. A response with any status code is returned
// as a *Res; only transport failures produce an error, always a *TransportError.
func (client *Client) Do(req Req) (*Res, error) {
	log.Printf("[DEBUG] HTTP Request: %s, %s", req.HttpReq.Method, req.HttpReq.URL)

	httpRes, err := client.HttpClient.Do(req.HttpReq)
	if err != nil {
		log.Printf("[ERROR] HTTP Connection error occurred: %+v", err)
		return nil, &TransportError{Method: req.HttpReq.Method, URL: req.HttpReq.URL.String(), Err: err}
	}
	defer httpRes.Body.Close()

	bodyBytes, err := io.ReadAll(httpRes.Body)
	if err != nil {
		log.Printf("[ERROR] Cannot read response body: %+v", err)
		return nil, &TransportError{Method: req.HttpReq.Method, URL: req.HttpReq.URL.String(), Err: err}
	}
	log.Printf("[DEBUG] HTTP Response: %d, %s", httpRes.StatusCode, bodyBytes)

	return &Res{
		StatusCode: httpRes.StatusCode,
		Header:     httpRes.Header,
		Raw:        bodyBytes,
	}, nil
}

// Send builds and executes a single request.
//
// For GET a non-nil body is encoded as query parameters and must be a
// map[string]string, map[string]interface{} or url.Values. For POST, PUT and
// PATCH the body is sent as application/yang-data+json. DELETE never carries
// a body.
func (client *Client) Send(ctx context.Context, method, path string, body interface{}, mods ...func(*Req)) (*Res, error) {
	method = strings.ToUpper(method)
	var reader io.Reader
	switch method {
	case http.MethodGet:
		if body != nil {
			q, err := queryValues(body)
			if err != nil {
				return nil, err
			}
			mods = append([]func(*Req){queryMod(q)}, mods...)
		}
	case http.MethodDelete:
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if body != nil {
			payload, err := encodeBody(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(payload)
		}
	default:
		return nil, fmt.Errorf("unsupported RESTCONF method %q", method)
	}
	req, err := client.NewReq(ctx, method, path, reader, mods...)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// Get makes a GET request.
func (client *Client) Get(ctx context.Context, path string, query interface{}, mods ...func(*Req)) (*Res, error) {
	return client.Send(ctx, http.MethodGet, path, query, mods...)
}

// Delete makes a DELETE request.
func (client *Client) Delete(ctx context.Context, path string, mods ...func(*Req)) (*Res, error) {
	return client.Send(ctx, http.MethodDelete, path, nil, mods...)
}

// Post makes a POST request.
// Hint: Use the Body struct to easily create POST body data.
func (client *Client) Post(ctx context.Context, path string, body interface{}, mods ...func(*Req)) (*Res, error) {
	return client.Send(ctx, http.MethodPost, path, body, mods...)
}

// Put makes a PUT request.
func (client *Client) Put(ctx context.Context, path string, body interface{}, mods ...func(*Req)) (*Res, error) {
	return client.Send(ctx, http.MethodPut, path, body, mods...)
}

// Patch makes a PATCH request.
func (client *Client) Patch(ctx context.Context, path string, body interface{}, mods ...func(*Req)) (*Res, error) {
	return client.Send(ctx, http.MethodPatch, path, body, mods...)
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case Body:
		return []byte(b.Str), nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

func queryValues(body interface{}) (url.Values, error) {
	switch b := body.(type) {
	case url.Values:
		return b, nil
	case map[string]string:
		q := url.Values{}
		for k, v := range b {
			q.Set(k, v)
		}
		return q, nil
	case map[string]interface{}:
		q := url.Values{}
		for k, v := range b {
			q.Set(k, fmt.Sprint(v))
		}
		return q, nil
	}
	return nil, fmt.Errorf("unsupported query parameter type %T", body)
}

func queryMod(q url.Values) func(*Req) {
	return func(req *Req) {
		merged := req.HttpReq.URL.Query()
		for k, vs := range q {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		req.HttpReq.URL.RawQuery = merged.Encode()
	}
}
