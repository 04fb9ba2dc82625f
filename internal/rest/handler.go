package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Request carries one parsed HTTP request into a Handler.
type Request struct {
	Method string
	Path   string
	Args   []string // pattern capture groups, in order
	Query  url.Values
	Header http.Header
	Body   []byte

	raw *http.Request
}

// JSON decodes the request payload into v. A body starting with '{' or '['
// is decoded as JSON; otherwise form/query parameters are used, matching
// what handlers conventionally expect from small REST services.
func (r *Request) JSON(v any) error {
	trimmed := strings.TrimSpace(string(r.Body))
	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
		if err := json.Unmarshal(r.Body, v); err != nil {
			return fmt.Errorf("unable to parse json content: %w", err)
		}
		return nil
	}
	params := map[string]string{}
	for name, vals := range r.Query {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	if trimmed != "" {
		if form, err := url.ParseQuery(trimmed); err == nil {
			for name, vals := range form {
				if len(vals) > 0 {
					params[name] = vals[0]
				}
			}
		}
	}
	buf, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}

// Param returns a single query parameter.
func (r *Request) Param(name string) string {
	return r.Query.Get(name)
}

// Result is an explicit handler response. Handlers may also return plain
// values; see coerce.
type Result struct {
	Code    int
	Content any
	Headers map[string]string
}

// StatusError maps a handler failure to a deliberate HTTP status instead of
// the generic 500 + correlation id treatment.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

// Server dispatches requests through a Mapper. It is the default handler
// class for compiled listeners.
type Server struct {
	Mapper *Mapper
	Logger *slog.Logger

	// HideStackTrace suppresses error detail in responses; failures are
	// logged with a correlation id the caller can report.
	HideStackTrace bool

	// MaxContentLength bounds the request body. Zero means no limit.
	MaxContentLength int64
}

func NewServer(mapper *Mapper) *Server {
	return &Server{Mapper: mapper, HideStackTrace: true}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h, args, allow, found := s.Mapper.Match(r.URL.Path, r.Method)
	if !found {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if h == nil {
		w.Header().Set("Allow", strings.Join(allow, ", "))
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var body io.Reader = r.Body
	if s.MaxContentLength > 0 {
		body = http.MaxBytesReader(w, r.Body, s.MaxContentLength)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	req := &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Args:   args,
		Query:  r.URL.Query(),
		Header: r.Header,
		Body:   payload,
		raw:    r,
	}

	defer func() {
		if p := recover(); p != nil {
			s.fail(w, logger, r, fmt.Errorf("panic: %v", p))
		}
	}()

	result, err := h(req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			writeResult(w, Result{Code: se.Code, Content: se.Error()})
			return
		}
		s.fail(w, logger, r, err)
		return
	}
	writeResult(w, coerce(result))
}

// fail logs the failure under a correlation id and hides detail from the
// caller when HideStackTrace is set.
func (s *Server) fail(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	id := uuid.New().String()
	logger.Error("rest_handler_failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error_id", id),
		slog.Any("err", err),
	)
	msg := fmt.Sprintf("internal error, reference id: %s\n", id)
	if !s.HideStackTrace {
		msg = fmt.Sprintf("internal error, reference id: %s\n%v\n", id, err)
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// coerce maps a handler's return value to a Result:
// int → bare status code, Result/*Result → as-is, nil → 200 empty,
// string/[]byte → text, anything else → JSON.
func coerce(v any) Result {
	switch t := v.(type) {
	case nil:
		return Result{Code: http.StatusOK}
	case Result:
		return t
	case *Result:
		return *t
	case int:
		return Result{Code: t}
	case string, []byte:
		return Result{Code: http.StatusOK, Content: t}
	default:
		return Result{Code: http.StatusOK, Content: t}
	}
}

func writeResult(w http.ResponseWriter, res Result) {
	if res.Code == 0 {
		res.Code = http.StatusOK
	}
	for name, val := range res.Headers {
		w.Header().Set(name, val)
	}

	var out []byte
	switch t := res.Content.(type) {
	case nil:
	case string:
		out = []byte(t)
		setDefaultContentType(w, "text/plain; charset=utf-8")
	case []byte:
		out = t
		setDefaultContentType(w, "application/octet-stream")
	default:
		buf, err := json.Marshal(t)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		out = buf
		setDefaultContentType(w, "application/json")
	}

	w.WriteHeader(res.Code)
	_, _ = w.Write(out)
}

func setDefaultContentType(w http.ResponseWriter, ct string) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", ct)
	}
}
