package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}

type healthResp struct {
	Status           string    `json:"status"`
	ModelLoaded      bool      `json:"modelLoaded"`
	KnowledgeRecords int       `json:"knowledgeRecords"`
	KnowledgeKeys    []string  `json:"knowledgeKeys"`
	Degraded         bool      `json:"degraded"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResp{
		Status:           "healthy",
		ModelLoaded:      true,
		KnowledgeRecords: s.engine.KnowledgeSize(),
		KnowledgeKeys:    s.engine.KnowledgeKeys(),
		Degraded:         s.engine.Degraded(),
		Timestamp:        s.now().UTC(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing required fields: image and plantPart")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, hdr, err := r.FormFile("image")
	plantPart := strings.TrimSpace(r.FormValue("plantPart"))
	if err != nil || plantPart == "" {
		if file != nil {
			_ = file.Close()
		}
		writeError(w, http.StatusBadRequest, "Missing required fields: image and plantPart")
		return
	}
	image, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "read image: "+err.Error())
		return
	}

	language := strings.TrimSpace(r.FormValue("language"))
	if language == "" {
		language = string(s.defaultLang)
	}

	result, err := s.engine.Diagnose(image, plantPart, language)
	if err != nil {
		s.log.Error("diagnosis failed", zap.Error(err))
		if errors.Is(err, diagnosis.ErrKnowledgeUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "knowledge store unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error during prediction")
		return
	}

	if userID := strings.TrimSpace(r.Header.Get(UserHeader)); userID != "" {
		s.recordScan(w, r, userID, hdr.Filename, plantPart, result)
	}
	writeJSON(w, http.StatusOK, result)
}

// recordScan persists a diagnosis for userID. Failures never fail the request;
// they are reported through the X-Scan-Saved header.
func (s *Server) recordScan(w http.ResponseWriter, r *http.Request, userID, filename, plantPart string, result diagnosis.Result) {
	if s.scans == nil {
		w.Header().Set("X-Scan-Saved", "false")
		return
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	scan, err := s.scans.SaveScan(r.Context(), store.Scan{
		UserID:     userID,
		ImageURL:   fmt.Sprintf("/uploads/%d_%s", s.now().UnixMilli(), name),
		PlantPart:  plantPart,
		Result:     result,
		Confidence: result.Confidence,
	})
	if err != nil {
		s.log.Warn("save scan failed", zap.String("user", userID), zap.Error(err))
		w.Header().Set("X-Scan-Saved", "false")
		return
	}
	w.Header().Set("X-Scan-Saved", "true")
	w.Header().Set("X-Scan-ID", scan.ID)
}

func (s *Server) handleListDiseases(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "disease catalog unavailable")
		return
	}
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	diseases, err := s.catalog.ListDiseases(r.Context(), store.DiseaseFilter{
		Search:   q.Get("search"),
		CropType: q.Get("cropType"),
		Severity: q.Get("severity"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.log.Error("list diseases failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, diseases)
}

func (s *Server) handleCreateDisease(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "disease catalog unavailable")
		return
	}
	var rec diagnosis.DiseaseRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec.ID = 0
	if strings.TrimSpace(rec.NameEN) == "" {
		writeError(w, http.StatusBadRequest, "name_en is required")
		return
	}
	created, err := s.catalog.CreateDisease(r.Context(), rec)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "disease already exists")
			return
		}
		s.log.Error("create disease failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := s.engine.Reload(r.Context()); err != nil {
		s.log.Error("knowledge reload failed", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.scans == nil {
		writeError(w, http.StatusServiceUnavailable, "scan history unavailable")
		return
	}
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	scans, err := s.scans.ListScans(r.Context(), userID, limit, offset)
	if err != nil {
		s.log.Error("list scans failed", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.scans == nil {
		writeError(w, http.StatusServiceUnavailable, "scan history unavailable")
		return
	}
	err := s.scans.DeleteScan(r.Context(), userID, r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Scan not found")
	case err != nil:
		s.log.Error("delete scan failed", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Scan deleted successfully"})
	}
}

func queryInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
