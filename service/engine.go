package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/config"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
)

// EngineService is the typed client for the remote analysis engine. Every
// operation classifies failures into the taxonomy in errors.go.
type EngineService struct {
	config     *config.EngineConfig
	httpClient *http.Client
}

func NewEngineService(cfg *config.EngineConfig) *EngineService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EngineService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UploadResponse is the engine's answer to a document upload.
type UploadResponse struct {
	UID     string `json:"uid"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// UploadDocument forwards a document to the engine as multipart form data.
func (s *EngineService) UploadDocument(ctx context.Context, filename, docName, docType string, file io.Reader) (*UploadResponse, error) {
	const op = "upload document"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.WriteField("doc_name", docName); err != nil {
		return nil, fmt.Errorf("failed to write doc_name: %w", err)
	}
	if err := writer.WriteField("doc_type", docType); err != nil {
		return nil, fmt.Errorf("failed to write doc_type: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResponse
	if err := s.do(req, op, "document", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResult fetches the raw analysis payload for a document.
func (s *EngineService) GetResult(ctx context.Context, uid string) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := s.getJSON(ctx, "/result/"+url.PathEscape(uid), "get result", "document", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetClauseDetail fetches the richer per-clause record. Known file-extension
// suffixes are stripped from the clause id before the request is issued:
// the list endpoint hands out ids like "3.txt" but the detail endpoint only
// knows "3".
func (s *EngineService) GetClauseDetail(ctx context.Context, uid, clauseID string) (*ClauseDetail, error) {
	cleanID := CleanClauseID(clauseID)
	path := fmt.Sprintf("/clause/%s/%s", url.PathEscape(uid), url.PathEscape(cleanID))

	var result ClauseDetail
	if err := s.getJSON(ctx, path, "get clause detail", "clause", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MissingClausesResponse is the engine's list of suggested ghost clauses.
type MissingClausesResponse struct {
	MissingClauses []MissingClause `json:"missing_clauses"`
}

// InsertGhost asks the engine for clauses the document is missing.
func (s *EngineService) InsertGhost(ctx context.Context, uid string) (*MissingClausesResponse, error) {
	body := map[string]string{"uid": uid}

	var result MissingClausesResponse
	if err := s.postJSON(ctx, "/insert-ghost", body, "insert ghost clauses", "document", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NegotiationResult carries a proposed rewrite; it is never applied to the
// stored clause unless the caller explicitly accepts it.
type NegotiationResult struct {
	RewrittenClause string `json:"rewritten_clause"`
	RiskAfter       string `json:"risk_after"`
	AIExplanation   string `json:"ai_explanation"`
}

// Negotiate requests a rewrite of a clause in the given tone.
func (s *EngineService) Negotiate(ctx context.Context, uid, clauseID, tone, origin string, risk model.Risk) (*NegotiationResult, error) {
	body := map[string]string{
		"uid":      uid,
		"clauseId": CleanClauseID(clauseID),
		"tone":     tone,
		"origin":   origin,
		"risk":     string(risk),
	}

	var result NegotiationResult
	if err := s.postJSON(ctx, "/negotiate", body, "negotiate clause", "clause", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatResponse carries the assistant's answer and the session it belongs to.
// The engine creates a session lazily when session_id is omitted.
type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// Chat sends one question about a document to the assistant.
func (s *EngineService) Chat(ctx context.Context, uid, question, sessionID string) (*ChatResponse, error) {
	body := map[string]string{
		"uid":      uid,
		"question": question,
	}
	if sessionID != "" {
		body["session_id"] = sessionID
	}

	var result ChatResponse
	if err := s.postJSON(ctx, "/chat", body, "chat", "document", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type sessionsResponse struct {
	Sessions []model.ChatSession `json:"sessions"`
}

// ListSessions lists the saved assistant sessions.
func (s *EngineService) ListSessions(ctx context.Context) ([]model.ChatSession, error) {
	var result sessionsResponse
	if err := s.getJSON(ctx, "/sessions", "list sessions", "sessions", &result); err != nil {
		return nil, err
	}
	if result.Sessions == nil {
		result.Sessions = []model.ChatSession{}
	}
	return result.Sessions, nil
}

// SessionHistory is one session's full transcript.
type SessionHistory struct {
	SessionID string              `json:"session_id"`
	History   []model.ChatMessage `json:"history"`
}

// GetSessionHistory fetches a session transcript wholesale.
func (s *EngineService) GetSessionHistory(ctx context.Context, sessionID string) (*SessionHistory, error) {
	var result SessionHistory
	if err := s.getJSON(ctx, "/sessions/"+url.PathEscape(sessionID), "get session history", "session", &result); err != nil {
		return nil, err
	}
	if result.History == nil {
		result.History = []model.ChatMessage{}
	}
	return &result, nil
}

// DeleteSession removes a saved session.
func (s *EngineService) DeleteSession(ctx context.Context, sessionID string) error {
	const op = "delete session"

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.config.BaseURL+"/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, op, "session"); err != nil {
		return err
	}
	return nil
}

// ExportOptions controls the shape of an exported redline document.
type ExportOptions struct {
	IncludeGhosts bool   `json:"includeGhosts"`
	IncludeELI5   bool   `json:"includeEli5"`
	Watermark     string `json:"watermark,omitempty"`
}

// ExportRedline fetches the rendered redline document as a binary blob,
// returning the bytes and the engine-reported content type.
func (s *EngineService) ExportRedline(ctx context.Context, uid string, opts ExportOptions) ([]byte, string, error) {
	const op = "export redline"

	jsonData, err := json.Marshal(opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/export/redline/"+url.PathEscape(uid), bytes.NewReader(jsonData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, op, "document"); err != nil {
		return nil, "", err
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read export: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return blob, contentType, nil
}

type videoStartResponse struct {
	JobID string `json:"job_id"`
}

// StartVideoGen starts a video-summary job and returns its job id.
func (s *EngineService) StartVideoGen(ctx context.Context, prompt, uid string) (string, error) {
	body := map[string]string{"prompt": prompt, "uid": uid}

	var result videoStartResponse
	if err := s.postJSON(ctx, "/videogen/start", body, "start video generation", "document", &result); err != nil {
		return "", err
	}
	return result.JobID, nil
}

// VideoStatus is the engine's report on a video job.
type VideoStatus struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	ErrorMsg string `json:"error,omitempty"`
}

// GetVideoGenStatus fetches the current state of a video job.
func (s *EngineService) GetVideoGenStatus(ctx context.Context, jobID string) (*VideoStatus, error) {
	var result VideoStatus
	if err := s.getJSON(ctx, "/videogen/status/"+url.PathEscape(jobID), "get video status", "video job", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EngineService) getJSON(ctx context.Context, path, op, resource string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return s.do(req, op, resource, out)
}

func (s *EngineService) postJSON(ctx context.Context, path string, body any, op, resource string, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, op, resource, out)
}

func (s *EngineService) do(req *http.Request, op, resource string, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, op, resource); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	return nil
}

// classifyStatus maps a non-2xx engine response into the error taxonomy.
// The body is drained into the error for 5xx so operators see what the
// engine said.
func classifyStatus(resp *http.Response, op, resource string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Op: op, Resource: resource}
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ServerError{Op: op, Status: resp.StatusCode, Body: string(body)}
	default:
		return fmt.Errorf("%s: engine returned %d", op, resp.StatusCode)
	}
}
