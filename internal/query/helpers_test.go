package query

import (
	"github.com/cnharrison/harq/internal/har"
)

type entryOpt func(*har.HAREntry)

func newEntry(method, url string, opts ...entryOpt) har.HAREntry {
	e := har.HAREntry{
		Request:  har.HARRequest{Method: method, URL: url},
		Response: har.HARResponse{Status: 200},
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func withStatus(status int) entryOpt {
	return func(e *har.HAREntry) { e.Response.Status = status }
}

func withResponse(mimeType, text, encoding string) entryOpt {
	return func(e *har.HAREntry) {
		e.Response.Content = har.HARContent{
			MimeType: mimeType,
			Size:     len(text),
			Text:     har.StringPtr(text),
			Encoding: encoding,
		}
	}
}

func withPostText(mimeType, text string) entryOpt {
	return func(e *har.HAREntry) {
		e.Request.PostData = &har.HARPostData{MimeType: mimeType, Text: har.StringPtr(text)}
		e.Request.BodySize = len(text)
	}
}

func withHeader(name, value string) entryOpt {
	return func(e *har.HAREntry) {
		e.Request.Headers = append(e.Request.Headers, har.HARHeader{Name: name, Value: value})
	}
}

func newDoc(entries ...har.HAREntry) *har.HARFile {
	return &har.HARFile{Log: har.HARLog{Version: "1.2", Entries: entries}}
}

// loginDoc is a small capture of a login flow followed by unrelated traffic
func loginDoc() *har.HARFile {
	return newDoc(
		newEntry("POST", "https://a/api/login",
			withHeader("Content-Type", "application/json"),
			withPostText("application/json", `{"username":"testuser"}`),
			withResponse("application/json", `{"success":true}`, "")),
		newEntry("GET", "https://a/static/app.js",
			withResponse("application/javascript", "console.log(1)", "")),
		newEntry("GET", "https://a/api/profile?id=7",
			withResponse("application/json; charset=utf-8", `{"id":7,"name":"Test"}`, "")),
		newEntry("GET", "https://a/api/logi", withStatus(404)),
	)
}
