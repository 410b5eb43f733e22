package backend

import (
	"net/http"
	"sync"
	"time"
)

// Session cookie names the backend issues and the gateway forwards.
const (
	SessionCookie = "sessionid"
	CSRFCookie    = "csrftoken"
)

// ForwardedCookies are the only browser cookies passed through to the backend.
var ForwardedCookies = []string{SessionCookie, CSRFCookie}

// cookieJar holds the cookies of one caller for the lifetime of a request.
// Cookies set by the backend replace the ones sent, so later calls in the
// same request see a freshly issued session. A nil jar, as held by a client
// not bound with WithCookies, sends and keeps nothing.
type cookieJar struct {
	mu       sync.Mutex
	cookies  map[string]*http.Cookie
	received []*http.Cookie
}

func newCookieJar(cookies []*http.Cookie) *cookieJar {
	jar := &cookieJar{cookies: make(map[string]*http.Cookie)}
	for _, name := range ForwardedCookies {
		for _, ck := range cookies {
			if ck.Name == name && ck.Value != "" {
				jar.cookies[name] = &http.Cookie{Name: ck.Name, Value: ck.Value}
			}
		}
	}
	return jar
}

func (j *cookieJar) apply(req *http.Request) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, name := range ForwardedCookies {
		if ck, ok := j.cookies[name]; ok {
			req.AddCookie(ck)
		}
	}
	if ck, ok := j.cookies[CSRFCookie]; ok {
		req.Header.Set("X-CSRFToken", ck.Value)
	}
}

func (j *cookieJar) update(resp *http.Response) {
	if j == nil {
		return
	}
	set := resp.Cookies()
	if len(set) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, ck := range set {
		j.received = append(j.received, ck)
		if !isForwarded(ck.Name) {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(j.cookies, ck.Name)
			continue
		}
		j.cookies[ck.Name] = &http.Cookie{Name: ck.Name, Value: ck.Value}
	}
}

func (j *cookieJar) value(name string) string {
	if j == nil {
		return ""
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if ck, ok := j.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

func (j *cookieJar) drain() []*http.Cookie {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.received
	j.received = nil
	return out
}

func isForwarded(name string) bool {
	for _, n := range ForwardedCookies {
		if n == name {
			return true
		}
	}
	return false
}
