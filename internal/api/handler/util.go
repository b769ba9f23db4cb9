package handler

import (
	"net/http"
	"strconv"
)

// formInt reads an optional integer form value. An empty value is zero.
func formInt(r *http.Request, key string) (int, bool) {
	v := r.FormValue(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// pagination reads limit and offset query parameters with the usual bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
