package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assistgate/assistgate/pkg/assistant"
	"github.com/assistgate/assistgate/pkg/audit"
	"github.com/assistgate/assistgate/pkg/config"
	"github.com/assistgate/assistgate/pkg/models"
	"github.com/assistgate/assistgate/pkg/telemetry"
)

// defaultModel is used for chat when the caller does not pick one.
const defaultModel = "gpt-4o"

var supportedActions = []string{
	"chat", "search", "describeAssistant", "listAssistants",
	"listFiles", "deleteFile", "store",
}

var errMethodNotAllowed = errors.New("method not allowed")

// Server is the assistgate HTTP proxy.
type Server struct {
	cfg      *config.Config
	client   *assistant.Client
	resolver *assistant.Resolver
	auditor  *audit.Logger
	mux      *http.ServeMux
}

// New creates a proxy Server wired with all dependencies.
func New(cfg *config.Config, client *assistant.Client, resolver *assistant.Resolver, auditor *audit.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		auditor:  auditor,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	if cfg.Telemetry.Enabled {
		s.mux.Handle("/metrics", telemetry.Handler())
	}
	s.mux.HandleFunc("/", s.handleProxy)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the proxy server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("assistgate proxy listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	body, _ := io.ReadAll(r.Body)
	r.Body.Close()

	var req models.ProxyRequest
	result, err := s.handle(r, body, &req)

	status := http.StatusOK
	var envelope any
	var errMsg string
	if err != nil {
		if errors.Is(err, errMethodNotAllowed) {
			status = http.StatusMethodNotAllowed
			errMsg = err.Error()
			envelope = models.ErrorEnvelope{Success: false, Error: errMsg}
		} else {
			n := assistant.Normalize(err)
			status = n.Status
			errMsg = n.Message
			envelope = models.ErrorEnvelope{Success: false, Error: n.Message, Details: n.Details}
		}
	} else {
		envelope = models.SuccessEnvelope{Success: true, Type: req.Action, Data: result}
	}

	respBody, merr := json.Marshal(envelope)
	if merr != nil {
		status = http.StatusInternalServerError
		respBody = []byte(`{"success":false,"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(respBody)

	action := req.Action
	if action == "" {
		action = "unknown"
	}
	telemetry.RequestsTotal.WithLabelValues(action, strconv.Itoa(status)).Inc()

	if s.auditor != nil {
		entry := models.AuditEntry{
			RequestID:    requestID,
			Action:       action,
			Assistant:    req.Name(),
			StatusCode:   status,
			ErrorMessage: errMsg,
			RequestBody:  string(body),
			ResponseBody: string(respBody),
			LatencyMs:    time.Since(start).Milliseconds(),
			CreatedAt:    time.Now().UTC(),
		}
		go func() {
			if err := s.auditor.Log(context.Background(), entry); err != nil {
				log.Printf("audit log error: %v", err)
			}
		}()
	}
}

// handle validates the inbound request and dispatches the action. All errors
// bubble up to handleProxy, where they are normalized exactly once.
func (s *Server) handle(r *http.Request, body []byte, req *models.ProxyRequest) (any, error) {
	if r.Method != http.MethodPost {
		return nil, errMethodNotAllowed
	}

	if token := s.cfg.Auth.BearerToken; token != "" {
		if bearerToken(r) != token {
			return nil, &assistant.AuthError{Message: "unauthorized"}
		}
	}

	if err := json.Unmarshal(body, req); err != nil {
		return nil, &assistant.ValidationError{Message: "invalid JSON body"}
	}
	if req.Action == "" {
		return nil, &assistant.ValidationError{Message: "action is required"}
	}

	name := req.Name()
	switch req.Action {
	case "listAssistants", "store":
	default:
		if name == "" {
			return nil, &assistant.ValidationError{Message: "assistant_name is required"}
		}
	}

	ctx := r.Context()
	switch req.Action {
	case "chat":
		return s.handleChat(ctx, req, name)
	case "search":
		return s.handleSearch(ctx, req, name)
	case "describeAssistant":
		resp, err := s.client.DescribeAssistant(ctx, name)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(resp.Body), nil
	case "listAssistants":
		resp, err := s.client.ListAssistants(ctx)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(resp.Body), nil
	case "listFiles":
		return s.handleListFiles(ctx, req, name)
	case "deleteFile":
		return s.handleDeleteFile(ctx, req, name)
	case "store":
		return nil, &assistant.NotImplementedError{
			Message: "file upload is not implemented; upload files via the platform API directly",
			Details: models.StoreLimits{
				MaxFileSizeBytes: 10 << 20,
				AcceptedTypes:    []string{"application/pdf", "text/plain", "text/markdown", "application/json"},
				UploadHint:       "POST {base}/files/{assistant_name} with multipart form data",
			},
		}
	default:
		return nil, &assistant.ValidationError{
			Message: fmt.Sprintf("unsupported action %q (supported: %s)", req.Action, strings.Join(supportedActions, ", ")),
		}
	}
}

func (s *Server) handleChat(ctx context.Context, req *models.ProxyRequest, name string) (any, error) {
	var data models.ChatData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return nil, &assistant.ValidationError{Message: "invalid data payload"}
		}
	}

	base, err := s.resolver.ResolveBase(ctx, name, req.AssistantHost)
	if err != nil {
		return nil, err
	}

	messages := append([]models.ChatMessage{}, data.Context...)
	if data.Message != "" {
		messages = append(messages, models.ChatMessage{Role: "user", Content: data.Message})
	}

	model := data.Model
	if model == "" {
		model = defaultModel
	}
	var temperature float64
	if data.Temperature != nil {
		temperature = *data.Temperature
	}

	resp, err := s.client.Chat(ctx, base, name, &models.ChatRequest{
		Messages:          messages,
		Model:             model,
		Temperature:       temperature,
		Filter:            data.Filter,
		JSONResponse:      data.JSONResponse,
		IncludeHighlights: data.IncludeHighlights,
		ContextOptions:    data.ContextOptions,
		TopK:              data.TopK,
	})
	if err != nil {
		return nil, err
	}

	result := models.ChatResult{
		Citations: resp.Citations,
		Usage:     resp.Usage,
		Model:     resp.Model,
	}
	if resp.Message != nil {
		result.Response = resp.Message.Content
	}
	if result.Citations == nil {
		result.Citations = []json.RawMessage{}
	}
	if result.Usage == nil {
		result.Usage = map[string]any{}
	}
	return result, nil
}

func (s *Server) handleSearch(ctx context.Context, req *models.ProxyRequest, name string) (any, error) {
	var data models.SearchData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return nil, &assistant.ValidationError{Message: "invalid data payload"}
		}
	}

	messages := data.Messages
	if len(messages) == 0 {
		if data.Query == "" {
			return nil, &assistant.ValidationError{Message: "query or messages is required"}
		}
		messages = []models.ChatMessage{{Role: "user", Content: data.Query}}
	}

	base, err := s.resolver.ResolveBase(ctx, name, req.AssistantHost)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Context(ctx, base, name, &models.ContextRequest{
		Messages:       messages,
		TopK:           data.TopK,
		Filter:         data.Filter,
		ContextOptions: data.ContextOptions,
	})
	if err != nil {
		return nil, err
	}

	result := models.SearchResult{
		Snippets: resp.Snippets,
		Usage:    resp.Usage,
		ID:       resp.ID,
	}
	if result.Snippets == nil {
		result.Snippets = []json.RawMessage{}
	}
	if result.Usage == nil {
		result.Usage = map[string]any{}
	}
	return result, nil
}

func (s *Server) handleListFiles(ctx context.Context, req *models.ProxyRequest, name string) (any, error) {
	var data models.FileData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return nil, &assistant.ValidationError{Message: "invalid data payload"}
		}
	}

	base, err := s.resolver.ResolveBase(ctx, name, req.AssistantHost)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.ListFiles(ctx, base, name, data.Filter)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

func (s *Server) handleDeleteFile(ctx context.Context, req *models.ProxyRequest, name string) (any, error) {
	var data models.FileData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			return nil, &assistant.ValidationError{Message: "invalid data payload"}
		}
	}
	if data.FileID == "" {
		return nil, &assistant.ValidationError{Message: "file_id is required"}
	}

	base, err := s.resolver.ResolveBase(ctx, name, req.AssistantHost)
	if err != nil {
		return nil, err
	}

	if err := s.client.DeleteFile(ctx, base, name, data.FileID); err != nil {
		return nil, err
	}
	return models.DeleteResult{Deleted: true, FileID: data.FileID}, nil
}

// setCORS writes cross-origin headers. The request Origin is echoed when it
// is in the allowed list; otherwise the first configured origin applies.
func (s *Server) setCORS(w http.ResponseWriter, r *http.Request) {
	origins := s.cfg.CORS.Origins()
	if len(origins) == 0 {
		return
	}
	allow := origins[0]
	reqOrigin := r.Header.Get("Origin")
	for _, o := range origins {
		if o == "*" {
			allow = "*"
			break
		}
		if o == reqOrigin {
			allow = reqOrigin
			break
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
