package restyutil

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

const redacted = "<REDACTED>"

// headers whose values never end up in a dump
var secretHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
	"X-Api-Key":     true,
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		for _, v := range headers[k] {
			if secretHeaders[http.CanonicalHeaderKey(k)] {
				v = redacted
			}
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// redactUrl hides query values and the token segment of webhook urls
// (/api/webhooks/<id>/<token>).
func redactUrl(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.User != nil {
		u.User = url.User(redacted)
	}
	query := u.Query()
	for k := range query {
		query.Set(k, redacted)
	}
	u.RawQuery = query.Encode()

	segments := strings.Split(u.Path, "/")
	for i, segment := range segments {
		if segment == "webhooks" && i+2 < len(segments) {
			segments[i+2] = redacted
		}
	}
	u.Path = strings.Join(segments, "/")
	u.RawPath = ""

	out, err := url.PathUnescape(u.String())
	if err != nil {
		return u.String()
	}
	return out
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<NO BODY AVAILABLE>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

func writeSection(out *strings.Builder, title string, parts ...string) {
	fmt.Fprintf(out, "---- %s ----\n", title)
	for _, part := range parts {
		out.WriteString("\n")
		out.WriteString(part)
		out.WriteString("\n")
	}
}

// formatHttpMessage renders a full exchange for FilesystemOutput.
func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	var out strings.Builder
	writeSection(
		&out, "REQUEST",
		fmt.Sprintf("%s %s", res.Request.Method, redactUrl(res.Request.URL)),
		requestHeaders,
		formatRequestBody(res.Request.RawRequest),
	)
	out.WriteString("\n")
	writeSection(
		&out, "RESPONSE",
		fmt.Sprintf("%s (%s)", strconv.Itoa(res.StatusCode()), res.Time()),
		formatHeaders(res.Header()),
		res.String(),
	)
	return out.String()
}
