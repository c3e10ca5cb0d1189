package http

import (
	"net/http"
	"strconv"
	"time"

	"labreserve/pkg/config"
	apperrors "labreserve/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractTime reads an RFC3339 query parameter, falling back to now when the
// parameter is absent. Queries that look at "now" accept an explicit as_of
// so operators can inspect any instant.
func ExtractTime(r *http.Request, param string, fallback time.Time) (time.Time, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + param + " parameter, must be RFC3339")
	}
	return parsed, nil
}

// ExtractDate reads a YYYY-MM-DD query parameter in the given location.
func ExtractDate(r *http.Request, param string, loc *time.Location) (time.Time, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return time.Time{}, apperrors.InvalidInput(param + " parameter is required")
	}
	parsed, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + param + " parameter, must be YYYY-MM-DD")
	}
	return parsed, nil
}
