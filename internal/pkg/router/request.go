package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

// Request is the inbound request handed to a Handler.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetParamInt64(key string) (int64, error) {
	v, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("param must integer value")
	}
	return v, nil
}

// GetQuery returns the trimmed query value, "" when absent.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func (r *Request) GetQueries(key string) []string {
	return r.URL.Query()[key]
}

// GetQueryInt32 returns 0 for an absent value.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	v, err := parseQuery(r, key, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 32) })
	return int32(v), err
}

func (r *Request) GetQueryInt64(key string) (int64, error) {
	return parseQuery(r, key, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func (r *Request) GetQueryInt16(key string) (int16, error) {
	v, err := parseQuery(r, key, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 16) })
	return int16(v), err
}

// GetQueryDate returns the zero time for an absent value.
func (r *Request) GetQueryDate(key, layout string) (time.Time, error) {
	v, err := parseQuery(r, key, func(s string) (time.Time, error) { return time.Parse(layout, s) })
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return v, nil
}

func parseQuery[T any](r *Request, key string, parse func(string) (T, error)) (T, error) {
	var zero T
	raw := r.GetQuery(key)
	if raw == "" {
		return zero, nil
	}
	v, err := parse(raw)
	if err != nil {
		return zero, goerror.NewInvalidFormat()
	}
	return v, nil
}

// DecodeBody decodes exactly one JSON value into dst and rejects unknown
// fields or trailing data.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// StreamSingleFile returns the multipart part named name without buffering
// the upload. Parts before it are drained.
func (r *Request) StreamSingleFile(name string) (io.ReadCloser, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, goerror.NewInvalidFormat()
		}
		if part.FormName() == name {
			return part, nil
		}
		if err := discardPart(part); err != nil {
			return nil, goerror.NewInvalidFormat(err.Error())
		}
	}
}

func discardPart(p *multipart.Part) error {
	_, err := io.Copy(io.Discard, p)
	return errors.Join(err, p.Close())
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func (r *Request) BearerToken() string {
	return bearerToken(r.Header)
}
