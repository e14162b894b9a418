package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotelops/rmsync/internal/importer"
	"github.com/hotelops/rmsync/internal/logging"
	"github.com/hotelops/rmsync/internal/store"
)

// handleHealth reports process liveness and whether the destination store
// answers. A down store degrades the report but keeps the status 200: the
// service itself is still up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	if err := s.svc.Store().Ping(r.Context()); err != nil {
		storeStatus = "unreachable"
		logging.FromContext(r.Context()).Warn("store ping failed", "error", err)
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  storeStatus,
	})
}

// handleUpload stages a multipart file upload and returns the stored name
// plus sheet names when the file is a workbook.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &importer.Error{
			Kind: importer.KindBadInput,
			Msg:  "invalid request body",
			Err:  err,
		})
		return
	}
	defer file.Close()

	info, err := s.svc.SaveUpload(header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("file uploaded",
		"file", info.Filename,
		"original_name", info.OriginalName,
		"size", info.Size)
	s.writeJSON(w, r, http.StatusCreated, info)
}

// handleCleanup removes a staged upload.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cleanup(chi.URLParam(r, "filename")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req importer.PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.svc.Preview(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, preview)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req importer.ProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.svc.Process(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, preview)
}

// handleImportAppend loads a normalized file into its target table. Batch
// failures are part of the result body, not an HTTP error.
func (s *Server) handleImportAppend(w http.ResponseWriter, r *http.Request) {
	var req importer.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.ImportAppend(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// handleAutoProcess runs a known report category through its transformer and
// loads every produced record set.
func (s *Server) handleAutoProcess(w http.ResponseWriter, r *http.Request) {
	var req importer.AutoRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	results, err := s.svc.AutoProcess(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"results": results})
}

// ============================================================================
// Destination metadata
// ============================================================================

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.svc.Store().Tables(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleTableColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := s.svc.Store().TableColumns(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"columns": columns})
}

// ============================================================================
// Import templates
// ============================================================================

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.Store().ListTemplates(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"templates": templates})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.svc.Store().GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, tpl)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl store.Template
	if err := decodeJSON(r, &tpl); err != nil {
		s.respondError(w, r, err)
		return
	}
	if tpl.Name == "" {
		s.respondError(w, r, &importer.Error{
			Kind: importer.KindBadInput,
			Msg:  "invalid request body: template name is required",
		})
		return
	}

	created, err := s.svc.Store().CreateTemplate(r.Context(), tpl)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.svc.Store().UpdateTemplate(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
