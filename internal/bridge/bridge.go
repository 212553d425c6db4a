// Package bridge handles the messages the hosted onboarding and widget pages
// post back to their host.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/oktotech/okto-go/internal/auth"
)

// Message types posted by the hosted pages.
const (
	TypeGoBack      = "go_back"
	TypeGoogleAuth  = "g_auth"
	TypeCopyText    = "copy_text"
	TypeAuthSuccess = "auth_success"
	TypeFromIframe  = "FROM_IFRAME"
)

// Message is one postMessage payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply is posted back to the page for request-style messages.
type Reply struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ErrNoGoogleAuth is returned for g_auth when the host cannot sign in with Google.
var ErrNoGoogleAuth = errors.New("google sign-in is not available")

// Handler dispatches page messages to the session and host callbacks.
type Handler struct {
	session    *auth.Session
	onClose    func(ctx context.Context) error
	googleAuth func(ctx context.Context) (string, error)
	readClip   func() (string, error)
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithCloser is called when the page asks to be dismissed.
func WithCloser(fn func(ctx context.Context) error) Option {
	return func(h *Handler) { h.onClose = fn }
}

// WithGoogleAuth supplies the id token for g_auth requests.
func WithGoogleAuth(fn func(ctx context.Context) (string, error)) Option {
	return func(h *Handler) { h.googleAuth = fn }
}

// WithClipboard replaces the system clipboard reader.
func WithClipboard(fn func() (string, error)) Option {
	return func(h *Handler) { h.readClip = fn }
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a handler that installs credentials into s.
func NewHandler(s *auth.Session, opts ...Option) *Handler {
	h := &Handler{
		session:  s,
		readClip: clipboard.ReadAll,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one raw message. A nil reply means nothing is posted back.
// Unknown message types are ignored.
func (h *Handler) Handle(ctx context.Context, raw []byte) (*Reply, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("invalid page message: %w", err)
	}

	switch msg.Type {
	case TypeGoBack:
		return nil, h.close(ctx)

	case TypeFromIframe:
		var data string
		if json.Unmarshal(msg.Data, &data) == nil && data == "CLOSE" {
			return nil, h.close(ctx)
		}
		return nil, nil

	case TypeGoogleAuth:
		if h.googleAuth == nil {
			return nil, ErrNoGoogleAuth
		}
		idToken, err := h.googleAuth(ctx)
		if err != nil {
			return nil, fmt.Errorf("google sign-in failed: %w", err)
		}
		return &Reply{Type: TypeGoogleAuth, Data: idToken}, nil

	case TypeCopyText:
		text, err := h.readClip()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return &Reply{Type: TypeCopyText, Data: strings.TrimSpace(text)}, nil

	case TypeAuthSuccess:
		var cred auth.Credential
		if err := json.Unmarshal(msg.Data, &cred); err != nil {
			return nil, fmt.Errorf("invalid auth_success payload: %w", err)
		}
		return nil, h.session.Adopt(ctx, &cred)

	default:
		h.logger.Debug("ignoring page message", "type", msg.Type)
		return nil, nil
	}
}

func (h *Handler) close(ctx context.Context) error {
	if h.onClose == nil {
		return nil
	}
	return h.onClose(ctx)
}

// Serve reads newline-delimited messages from r and writes replies to w
// until r is exhausted or ctx ends. Failures of single messages are logged
// and do not stop the loop.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := h.Handle(ctx, []byte(line))
		if err != nil {
			h.logger.Warn("page message failed", "error", err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
	}
	return scanner.Err()
}
