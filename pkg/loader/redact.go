package loader

import (
	"net/url"
	"strings"
)

const redactedPassword = "xxxxx"

// Redact masks credentials in a connection string so it can be printed or
// logged. Passwords in the userinfo section and in a password query parameter
// are replaced; everything else is returned unchanged. Strings that do not
// parse as URLs fall back to masking the userinfo password textually.
func Redact(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Opaque != "" {
		return redactUserinfo(databaseURL)
	}

	changed := false
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redactedPassword)
		changed = true
	}
	if u.RawQuery != "" {
		q := u.Query()
		masked := false
		for key := range q {
			if strings.EqualFold(key, "password") {
				q.Set(key, redactedPassword)
				masked = true
			}
		}
		if masked {
			u.RawQuery = q.Encode()
			changed = true
		}
	}

	if !changed {
		return databaseURL
	}
	return u.String()
}

// redactUserinfo masks the text between the first ':' after "//" and the last
// '@' without parsing the URL.
func redactUserinfo(databaseURL string) string {
	start := strings.Index(databaseURL, "//")
	if start < 0 {
		return databaseURL
	}
	start += len("//")
	at := strings.LastIndex(databaseURL, "@")
	if at < start {
		return databaseURL
	}
	colon := strings.Index(databaseURL[start:at], ":")
	if colon < 0 {
		return databaseURL
	}
	colon += start
	return databaseURL[:colon+1] + redactedPassword + databaseURL[at:]
}
