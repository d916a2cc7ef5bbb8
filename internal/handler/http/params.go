package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// queryString returns the query parameter key, or nil when it is absent or
// empty.
func queryString(r *http.Request, key string) *string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	return &val
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func queryBool(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	b := val == "true" || val == "1"
	return &b
}

// formString is queryString for multipart form fields.
func formString(r *http.Request, key string) *string {
	val := r.FormValue(key)
	if val == "" {
		return nil
	}
	return &val
}

func formFloat(r *http.Request, key string) (*float64, bool) {
	val := r.FormValue(key)
	if val == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
