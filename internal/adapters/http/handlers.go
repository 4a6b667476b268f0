package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"mailroom/internal/adapters/http/middleware"
	batchStore "mailroom/internal/adapters/storage/batch"
	"mailroom/internal/application/orchestrators"
	"mailroom/internal/application/projections"
	"mailroom/internal/domain/contact"
	"mailroom/internal/domain/email"
)

// maxUploadBytes bounds one multipart request (contacts plus attachments).
const maxUploadBytes = 32 << 20

// Response bodies.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type draftResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	BatchID string                 `json:"batch_id"`
	Logs    []projections.LogEntry `json:"logs"`
	Sent    int                    `json:"sent"`
	Failed  int                    `json:"failed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_response_failed", "error", err)
	}
}

func writeStatus(w http.ResponseWriter, status int, success bool, msg string) {
	writeJSON(w, status, statusResponse{Success: success, Message: msg})
}

// internalError logs the error server-side and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeStatus(w, http.StatusInternalServerError, false, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render_failed", "template", name, "error", err)
	}
}

// handleIndex handles GET /: login view without a session, dashboard otherwise.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		render(w, "login.html", map[string]any{
			"CSRFToken": csrf.Token(r),
		})
		return
	}

	data := map[string]any{
		"CSRFToken":       csrf.Token(r),
		"Address":         sess.Address(),
		"DraftingEnabled": deps.Completer != nil,
	}
	if deps.BatchStore != nil {
		history, err := projections.QueryGetBatchHistory(r.Context(),
			projections.GetBatchHistoryQuery{Sender: sess.Address(), Limit: 10},
			projections.GetBatchHistoryDeps{BatchStore: deps.BatchStore})
		if err != nil {
			slog.Warn("dashboard_history_failed", "error", err)
		} else {
			data["Batches"] = history.Batches
		}
	}
	render(w, "dashboard.html", data)
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			slog.Error("health_check_failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /login with form fields email/password or a JSON body.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if isJSONRequest(r) {
		if err := strictDecode(r, &in); err != nil {
			writeStatus(w, http.StatusBadRequest, false, "invalid JSON body")
			return
		}
	} else {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeStatus(w, http.StatusBadRequest, false, "invalid form submission")
			return
		}
		in = loginRequest{Email: r.FormValue("email"), Password: r.FormValue("password")}
	}

	result, err := orchestrators.ExecuteLogin(r.Context(),
		orchestrators.LoginInput{Address: strings.TrimSpace(in.Email), Secret: in.Password},
		orchestrators.LoginDeps{Verifier: deps.Verifier})
	if err != nil {
		var authErr *email.AuthError
		if errors.As(err, &authErr) {
			writeStatus(w, http.StatusUnauthorized, false, authErr.Error())
			return
		}
		internalError(w, err)
		return
	}

	token, err := sessions.Create(result.Credentials)
	if err != nil {
		internalError(w, fmt.Errorf("create session: %w", err))
		return
	}
	// A fresh login replaces whatever session the browser held.
	if old := middleware.SessionToken(r); old != "" {
		sessions.Delete(old)
	}
	middleware.SetSessionCookie(w, token)
	writeStatus(w, http.StatusOK, true, "Logged in as "+result.Credentials.Address)
}

// handleLogout handles POST /logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	orchestrators.ExecuteLogout(r.Context(),
		orchestrators.LogoutInput{Token: middleware.SessionToken(r), Address: sess.Address()},
		orchestrators.LogoutDeps{Sessions: sessions})
	middleware.ClearSessionCookie(w)
	writeStatus(w, http.StatusOK, true, "Logged out")
}

// handleUploadContacts handles POST /contacts with a multipart "file" field.
func handleUploadContacts(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); !ok {
		writeStatus(w, http.StatusUnauthorized, false, orchestrators.ErrNotAuthenticated.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeStatus(w, http.StatusBadRequest, false, "missing contacts file")
		return
	}
	defer file.Close()

	res, err := uploadContacts(r.Context(), file, header)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeStatus(w, http.StatusOK, true, fmt.Sprintf("Uploaded %d contacts", res.Count))
}

func uploadContacts(ctx context.Context, file multipart.File, header *multipart.FileHeader) (orchestrators.UploadContactsResult, error) {
	return orchestrators.ExecuteUploadContacts(ctx,
		orchestrators.UploadContactsInput{Filename: header.Filename, File: file},
		orchestrators.UploadContactsDeps{ContactStore: deps.ContactStore})
}

func writeUploadError(w http.ResponseWriter, err error) {
	var me *contact.MalformedInputError
	if errors.As(err, &me) {
		writeStatus(w, http.StatusBadRequest, false, me.Error())
		return
	}
	internalError(w, err)
}

type generateRequest struct {
	Description string `json:"description"`
}

// handleGenerate handles POST /generate with form field description or a JSON body.
func handleGenerate(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if isJSONRequest(r) {
		if err := strictDecode(r, &in); err != nil {
			writeStatus(w, http.StatusBadRequest, false, "invalid JSON body")
			return
		}
	} else {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeStatus(w, http.StatusBadRequest, false, "invalid form submission")
			return
		}
		in.Description = r.FormValue("description")
	}

	res := orchestrators.ExecuteGenerateDraft(r.Context(),
		orchestrators.GenerateDraftInput{Description: in.Description},
		orchestrators.GenerateDraftDeps{Completer: deps.Completer})
	writeJSON(w, http.StatusOK, draftResponse{Subject: res.Subject, Body: res.Body})
}

// handleSend handles POST /send: multipart subject, body, repeated files and an
// optional contacts_file that replaces the stored list before sending.
func handleSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, false, orchestrators.ErrNotAuthenticated.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeStatus(w, http.StatusBadRequest, false, "invalid form submission")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	if file, header, err := r.FormFile("contacts_file"); err == nil {
		_, err := uploadContacts(r.Context(), file, header)
		file.Close()
		if err != nil {
			writeUploadError(w, err)
			return
		}
	}

	var attachments []*multipart.FileHeader
	if r.MultipartForm != nil {
		attachments = r.MultipartForm.File["files"]
	}
	paths, cleanup, err := saveAttachments(attachments)
	if err != nil {
		internalError(w, err)
		return
	}
	defer cleanup()

	res, err := orchestrators.ExecuteSendBatch(r.Context(), orchestrators.SendBatchInput{
		Credentials: sess.Credentials,
		Template: email.MessageTemplate{
			Subject:         r.FormValue("subject"),
			BodyTemplate:    r.FormValue("body"),
			AttachmentPaths: paths,
		},
	}, orchestrators.SendBatchDeps{
		Contacts:   deps.ContactStore,
		Sender:     deps.Sender,
		RenderHTML: deps.RenderHTML,
		BatchStore: deps.BatchStore,
		Workers:    deps.SendWorkers,
	})
	switch {
	case errors.Is(err, orchestrators.ErrNotAuthenticated):
		writeStatus(w, http.StatusUnauthorized, false, err.Error())
		return
	case errors.Is(err, orchestrators.ErrNoContacts):
		writeStatus(w, http.StatusBadRequest, false, err.Error())
		return
	case err != nil:
		writeUploadError(w, err)
		return
	}

	logs := make([]projections.LogEntry, len(res.Log))
	for i, entry := range res.Log {
		logs[i] = projections.LogEntry{Email: entry.Recipient, Status: entry.Status}
	}
	writeJSON(w, http.StatusOK, sendResponse{BatchID: res.BatchID, Logs: logs, Sent: res.Sent, Failed: res.Failed})
}

// saveAttachments writes uploaded attachments to a private temp directory.
// The returned cleanup removes the directory.
func saveAttachments(headers []*multipart.FileHeader) ([]string, func(), error) {
	if len(headers) == 0 {
		return nil, func() {}, nil
	}
	dir, err := os.MkdirTemp(deps.UploadDir, "mailroom-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create upload dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("upload_cleanup_failed", "dir", dir, "error", err)
		}
	}

	paths := make([]string, 0, len(headers))
	for i, h := range headers {
		name := filepath.Base(filepath.Clean("/" + h.Filename))
		if name == "/" || name == "." {
			name = "attachment-" + strconv.Itoa(i+1)
		}
		// Separate subdirectories keep duplicate filenames apart.
		sub := filepath.Join(dir, strconv.Itoa(i))
		if err := os.Mkdir(sub, 0o700); err != nil {
			cleanup()
			return nil, nil, err
		}
		path := filepath.Join(sub, name)
		if err := copyUpload(h, path); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("save attachment %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, cleanup, nil
}

func copyUpload(h *multipart.FileHeader, path string) error {
	src, err := h.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// handleListBatches handles GET /api/batches?limit=N for the logged-in sender.
func handleListBatches(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, false, orchestrators.ErrNotAuthenticated.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res, err := projections.QueryGetBatchHistory(r.Context(),
		projections.GetBatchHistoryQuery{Sender: sess.Address(), Limit: limit},
		projections.GetBatchHistoryDeps{BatchStore: deps.BatchStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetBatch handles GET /api/batches/{id}.
func handleGetBatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, false, orchestrators.ErrNotAuthenticated.Error())
		return
	}

	res, err := projections.QueryGetBatchDetail(r.Context(),
		projections.GetBatchDetailQuery{BatchID: r.PathValue("id"), Sender: sess.Address()},
		projections.GetBatchDetailDeps{BatchStore: deps.BatchStore})
	if errors.Is(err, batchStore.ErrNotFound) || errors.Is(err, projections.ErrBatchNotVisible) {
		writeStatus(w, http.StatusNotFound, false, "batch not found")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
