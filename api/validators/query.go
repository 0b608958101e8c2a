package validators

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/pagination"
)

// ParseQueryInt reads an optional integer query parameter, falling back
// to def when the parameter is absent.
func ParseQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be an integer")
	}
	return value, nil
}

func ParseQueryInt64(r *http.Request, name string) (int64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, name+" must be an integer")
	}
	return value, true, nil
}

func ParseQueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a boolean")
	}
	return value, nil
}

// ParsePageParams extracts limit and cursor pagination parameters.
func ParsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}

// ParsePathUUID parses a UUID path segment already extracted by the router.
func ParsePathUUID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a valid id")
	}
	return id, nil
}
