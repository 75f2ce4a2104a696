package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Doc parses the body as HTML.
func (r Response) Doc(t testing.TB) *goquery.Document {
	t.Helper()
	return ParseHTML(t, r.Body)
}

// Client is a browser-like client that keeps cookies and does not follow redirects.
type Client struct {
	t    testing.TB
	base string
	http *http.Client
}

// NewClient returns a Client bound to ts.
func NewClient(t testing.TB, ts *httptest.Server) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Client{
		t:    t,
		base: ts.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get fetches path.
func (c *Client) Get(path string, headers ...string) Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	return c.do(req, headers)
}

// Post submits form to path with a fresh CSRF token. Extra headers are
// name/value pairs.
func (c *Client) Post(path string, form url.Values, headers ...string) Response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", c.CSRFToken())
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, headers)
}

// Upload is one file part for PostMultipart.
type Upload struct {
	Field string
	Name  string
	Data  []byte
}

// PostMultipart submits fields and files as multipart/form-data with a fresh CSRF token.
func (c *Client) PostMultipart(path string, fields url.Values, uploads ...Upload) Response {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fields.Get("csrf_token") == "" {
		_ = mw.WriteField("csrf_token", c.CSRFToken())
	}
	for name, values := range fields {
		for _, v := range values {
			_ = mw.WriteField(name, v)
		}
	}
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.Field, u.Name)
		if err != nil {
			c.t.Fatalf("form file: %v", err)
		}
		_, _ = part.Write(u.Data)
	}
	if err := mw.Close(); err != nil {
		c.t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, &body)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

// HTMX returns the request headers htmx sends.
func HTMX() []string {
	return []string{"HX-Request", "true"}
}

// CSRFToken reads the token the layout embeds for the current session.
func (c *Client) CSRFToken() string {
	c.t.Helper()
	resp := c.Get("/register")
	token, _ := resp.Doc(c.t).Find(`meta[name="csrf-token"]`).Attr("content")
	if token == "" {
		c.t.Fatalf("no csrf token on /register")
	}
	return token
}

// Login signs in with the in-memory credentials.
func (c *Client) Login(email, password string) {
	c.t.Helper()
	resp := c.Post("/login", url.Values{"email": {email}, "password": {password}})
	if resp.Status != http.StatusSeeOther {
		c.t.Fatalf("login %s: status %d", email, resp.Status)
	}
}

func (c *Client) do(req *http.Request, headers []string) Response {
	c.t.Helper()
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
}
