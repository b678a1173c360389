package query

import "net/http"

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errInvalidJSON string

func (e errInvalidJSON) Error() string {
	return "invalid JSON response from " + string(e)
}
