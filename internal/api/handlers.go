package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/expenselens/backend/internal/model"
	"github.com/expenselens/backend/internal/recurring"
)

// maxUploadBytes bounds document uploads (20MB matches the Gemini inline
// payload ceiling).
const maxUploadBytes = 20 << 20

type listResponse struct {
	Documents     []*model.Document `json:"documents"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status model.Status
	switch q.Get("status") {
	case "":
	case string(model.StatusOK):
		status = model.StatusOK
	case string(model.StatusNeedsReview):
		status = model.StatusNeedsReview
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	pageSize := int32(50)
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "page_size must be between 1 and 500")
			return
		}
		pageSize = int32(n)
	}

	docs, nextToken, err := s.documents.List(r.Context(), status, pageSize, q.Get("page_token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	writeJSON(w, http.StatusOK, listResponse{Documents: docs, NextPageToken: nextToken})
}

// readUpload pulls the document bytes from either a multipart "file" part
// or the raw request body.
func readUpload(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, "", err
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload"
	}
	return data, filename, nil
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty document")
		return
	}

	start := time.Now()
	doc, err := s.documents.Ingest(r.Context(), data, filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ingestDuration.Observe(time.Since(start).Seconds())
	documentsIngested.WithLabelValues(string(doc.Status)).Inc()

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleIngestAsync(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty document")
		return
	}

	job, err := s.documents.IngestAsync(data, filename)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.documents.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func documentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if err := s.documents.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveRequest struct {
	Answers         map[string]interface{} `json:"answers"`
	ExpectedVersion int64                  `json:"expected_version"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ExpectedVersion <= 0 {
		writeError(w, http.StatusBadRequest, "expected_version is required")
		return
	}

	doc, err := s.documents.Resolve(r.Context(), id, req.Answers, req.ExpectedVersion)
	if err != nil {
		reviewsResolved.WithLabelValues("rejected").Inc()
		writeServiceError(w, err)
		return
	}
	reviewsResolved.WithLabelValues(string(doc.Status)).Inc()
	writeJSON(w, http.StatusOK, doc)
}

type paymentRequest struct {
	Paid            bool  `json:"paid"`
	ExpectedVersion int64 `json:"expected_version"`
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ExpectedVersion <= 0 {
		writeError(w, http.StatusBadRequest, "expected_version is required")
		return
	}

	doc, err := s.documents.SetPaid(r.Context(), id, req.Paid, req.ExpectedVersion)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.documents.RecurringCandidates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidates == nil {
		candidates = []recurring.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}
