package testutil

import "net/http"

// WithBearer sets the Authorization header, as a client holding an access
// token would.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
