package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seder-i18n/seder/editor"
	"github.com/seder-i18n/seder/keypath"
	"github.com/seder-i18n/seder/translation"
)

// HandlerConfig configures the HTTP handler returned by NewHandler.
type HandlerConfig struct {
	// Editor performs every read and write. Required.
	Editor *editor.Editor
	// Logger for requests and failures (default: discard).
	Logger *slog.Logger
	// UIDir holds the built browser UI. Empty disables static serving.
	UIDir string
	// IOTimeout bounds each editor call (default: DefaultIOTimeout).
	IOTimeout time.Duration
	// MaxBodyBytes limits request bodies (default: DefaultMaxBodyBytes).
	MaxBodyBytes int64
}

type api struct {
	editor    *editor.Editor
	logger    *slog.Logger
	ioTimeout time.Duration
}

// NewHandler returns the complete HTTP handler: API routes, health check
// and static UI, wrapped in recovery, request ID, logging, CORS and body
// limit middleware.
func NewHandler(cfg HandlerConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = DefaultIOTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	a := &api{editor: cfg.Editor, logger: cfg.Logger, ioTimeout: cfg.IOTimeout}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/translations", a.getTranslations)
	mux.HandleFunc("POST /api/save", a.save)
	mux.HandleFunc("POST /api/update-translation", a.updateTranslation)
	mux.HandleFunc("POST /api/save-translations", a.saveTranslations)
	mux.HandleFunc("GET /api/keys", a.getKeys)
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ui := newStaticUI(cfg.UIDir)
	mux.HandleFunc("GET /ui", ui.serveIndex)
	mux.Handle("GET /", ui)

	return Chain(mux,
		Recover(cfg.Logger),
		RequestID,
		Logging(cfg.Logger),
		CORS,
		BodyLimit(cfg.MaxBodyBytes),
	)
}

// ---------------------------------------------------------------------------
// Request and response bodies
// ---------------------------------------------------------------------------

type translationsRequest struct {
	Translations translation.Set `json:"translations"`
}

type updateRequest struct {
	Key    string         `json:"key"`
	Values map[string]any `json:"values"`
}

type okBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type successBody struct {
	Success bool `json:"success"`
}

type errorBody struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (a *api) getTranslations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.opContext(r)
	defer cancel()

	snap, err := a.editor.Snapshot(ctx, r.URL.Query().Get("main"))
	if err != nil {
		a.fail(r, "loading translations", err)
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *api) getKeys(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.opContext(r)
	defer cancel()

	rep, err := a.editor.Report(ctx)
	if err != nil {
		a.fail(r, "computing key report", err)
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// save replaces every posted language with its complete key map.
func (a *api) save(w http.ResponseWriter, r *http.Request) {
	var req translationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, statusFor(err), okBody{Error: err.Error()})
		return
	}

	ctx, cancel := a.opContext(r)
	defer cancel()

	if _, err := a.editor.Save(ctx, req.Translations); err != nil {
		a.fail(r, "saving translations", err)
		writeJSON(w, statusFor(err), okBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// updateTranslation sets one key in each language of the request.
func (a *api) updateTranslation(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}

	ctx, cancel := a.opContext(r)
	defer cancel()

	if _, err := a.editor.UpdateKey(ctx, req.Key, req.Values); err != nil {
		a.fail(r, "updating translation", err, "key", req.Key)
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// saveTranslations merges the posted keys into each language file,
// leaving keys that were not posted as they are.
func (a *api) saveTranslations(w http.ResponseWriter, r *http.Request) {
	var req translationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, statusFor(err), okBody{Error: err.Error()})
		return
	}

	ctx, cancel := a.opContext(r)
	defer cancel()

	if _, err := a.editor.SaveKeys(ctx, req.Translations); err != nil {
		a.fail(r, "saving translation keys", err)
		writeJSON(w, statusFor(err), okBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (a *api) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.ioTimeout)
}

func (a *api) fail(r *http.Request, msg string, err error, args ...any) {
	level := slog.LevelError
	if statusFor(err) < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	args = append(args, "error", err)
	if id, ok := GetRequestID(r.Context()); ok {
		args = append(args, "request_id", id)
	}
	a.logger.Log(r.Context(), level, msg, args...)
}

// decodeJSON reads one JSON object from the request body. Numbers are kept
// as json.Number so they are written back unchanged.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return maxErr
		}
		if errors.Is(err, io.EOF) {
			return &translation.ValidationError{Field: "body", Reason: "must not be empty"}
		}
		return &translation.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// statusFor maps an editor error to an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, translation.ErrValidation),
		errors.Is(err, keypath.ErrPathCollision),
		errors.Is(err, keypath.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
