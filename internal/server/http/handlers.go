package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/engine"
	"github.com/guardia/roster-control-service/internal/ingest"
	"github.com/guardia/roster-control-service/internal/ledger"
	"github.com/guardia/roster-control-service/internal/observability"
	"github.com/guardia/roster-control-service/internal/repository"
	"github.com/guardia/roster-control-service/internal/workbook"
)

// Validation constants.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for JSON request bodies
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// createSessionRequest is the JSON request body for opening a comparison session.
type createSessionRequest struct {
	Parte              string `json:"parte" validate:"required"`
	Lista              string `json:"lista" validate:"required"`
	AutoThreshold      *int   `json:"auto_threshold,omitempty"`
	DetectiveThreshold *int   `json:"detective_threshold,omitempty"`
}

// thresholdsRequest is the JSON request body for updating session thresholds.
type thresholdsRequest struct {
	AutoThreshold      int `json:"auto_threshold" validate:"required"`
	DetectiveThreshold int `json:"detective_threshold" validate:"required"`
}

// decisionRequest is the JSON request body for recording or undoing a pair verdict.
type decisionRequest struct {
	RefID   string `json:"ref_id" validate:"required"`
	CandID  string `json:"cand_id" validate:"required"`
	Verdict string `json:"verdict,omitempty"`
}

// checkRequest is the JSON request body for toggling the acknowledgment flag.
type checkRequest struct {
	Checked bool `json:"checked"`
}

// createSession handles POST /sessions. Each roster arrives either in a JSON
// body as pasted text or as an uploaded file in a multipart form. Both paths
// run the first analysis and return the stored session snapshot.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.createSessionFromFiles(w, r)
		return
	}

	var req createSessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	opts := s.defaultOpts
	if req.AutoThreshold != nil {
		opts.AutoThreshold = *req.AutoThreshold
	}
	if req.DetectiveThreshold != nil {
		opts.DetectiveThreshold = *req.DetectiveThreshold
	}
	if err := opts.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	parte, err := ingest.ParseText(domain.SourceParte, req.Parte)
	if err != nil {
		s.metrics.RecordIngestFailure(string(domain.SourceParte))
		writeDomainError(w, err)
		return
	}
	lista, err := ingest.ParseText(domain.SourceLista, req.Lista)
	if err != nil {
		s.metrics.RecordIngestFailure(string(domain.SourceLista))
		writeDomainError(w, err)
		return
	}

	s.finishCreateSession(w, r, parte, lista, opts)
}

// createSessionFromFiles handles the multipart form of POST /sessions: 'parte'
// and 'lista' file fields (CSV or xlsx, parsed by extension) plus optional
// threshold form values.
func (s *Server) createSessionFromFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	opts := s.defaultOpts
	var err error
	if opts.AutoThreshold, err = formThreshold(r, "auto_threshold", opts.AutoThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.DetectiveThreshold, err = formThreshold(r, "detective_threshold", opts.DetectiveThreshold); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := opts.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	parte, ok := s.readRosterFile(w, r, domain.SourceParte)
	if !ok {
		return
	}
	lista, ok := s.readRosterFile(w, r, domain.SourceLista)
	if !ok {
		return
	}

	s.finishCreateSession(w, r, parte, lista, opts)
}

// readRosterFile reads and parses one roster file field from a multipart
// form. It writes the error response itself and reports success.
func (s *Server) readRosterFile(w http.ResponseWriter, r *http.Request, source domain.RosterSource) ([]domain.RawEntry, bool) {
	file, header, err := r.FormFile(string(source))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", string(source)))
		return nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return nil, false
	}

	entries, err := ingest.ParseFile(source, header.Filename, data)
	if err != nil {
		s.metrics.RecordIngestFailure(string(source))
		writeDomainError(w, err)
		return nil, false
	}
	return entries, true
}

// finishCreateSession stores and returns a new session once both rosters are
// ingested.
func (s *Server) finishCreateSession(w http.ResponseWriter, r *http.Request, parte, lista []domain.RawEntry, opts domain.MatchingOptions) {
	ctx := r.Context()

	session := &repository.Session{
		ID:      uuid.New(),
		Parte:   parte,
		Lista:   lista,
		Options: opts,
		Ledger:  ledger.New(),
	}
	s.analyze(session, "create")

	if err := s.sessions.Create(ctx, session); err != nil {
		writeDomainError(w, err)
		return
	}
	s.metrics.RecordSessionCreated(s.sessions.Count(ctx))

	writeJSON(w, http.StatusCreated, sessionToResponse(session))
}

// formThreshold reads an optional integer threshold from a form field,
// falling back to the session default when absent.
func formThreshold(r *http.Request, field string, fallback int) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return n, nil
}

// getSession handles GET /sessions/{sessionID}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	var resp sessionResponse
	err := s.sessions.View(ctx, sessionID, func(session *repository.Session) error {
		resp = sessionToResponse(session)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// deleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	s.metrics.RecordSessionClosed(s.sessions.Count(ctx))

	w.WriteHeader(http.StatusNoContent)
}

// updateThresholds handles PUT /sessions/{sessionID}/thresholds. The session
// is re-analyzed in full under the new thresholds.
func (s *Server) updateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	var req thresholdsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	opts := domain.MatchingOptions{
		AutoThreshold:      req.AutoThreshold,
		DetectiveThreshold: req.DetectiveThreshold,
	}
	if err := opts.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	var resp sessionResponse
	err := s.sessions.Update(ctx, sessionID, func(session *repository.Session) error {
		session.Options = opts
		s.analyze(session, "thresholds")
		resp = sessionToResponse(session)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// recordDecision handles POST /sessions/{sessionID}/decisions. The verdict is
// written to the ledger and the session is re-analyzed.
func (s *Server) recordDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	var req decisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	verdict := domain.Verdict(req.Verdict)
	if !verdict.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("verdict must be %q or %q",
			domain.VerdictConfirmedSame, domain.VerdictRejectedDifferent))
		return
	}

	var resp sessionResponse
	err := s.sessions.Update(ctx, sessionID, func(session *repository.Session) error {
		switch verdict {
		case domain.VerdictConfirmedSame:
			session.Ledger.Confirm(req.RefID, req.CandID)
		case domain.VerdictRejectedDifferent:
			session.Ledger.Reject(req.RefID, req.CandID)
		}
		s.analyze(session, "decision")
		resp = sessionToResponse(session)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.metrics.RecordDecision(string(verdict))

	writeJSON(w, http.StatusOK, resp)
}

// undoDecision handles DELETE /sessions/{sessionID}/decisions. Undoing an
// absent pair is a no-op beyond the re-analysis.
func (s *Server) undoDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	var req decisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var resp sessionResponse
	err := s.sessions.Update(ctx, sessionID, func(session *repository.Session) error {
		session.Ledger.Undo(req.RefID, req.CandID)
		s.analyze(session, "undo")
		resp = sessionToResponse(session)
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.metrics.RecordDecisionUndone()

	writeJSON(w, http.StatusOK, resp)
}

// setCheck handles PUT /sessions/{sessionID}/checks/{recordID}. The flag is
// display state only and does not trigger a re-analysis.
func (s *Server) setCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "record_id is required")
		return
	}

	var req checkRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	err := s.sessions.Update(ctx, sessionID, func(session *repository.Session) error {
		if req.Checked {
			session.Checked[recordID] = true
		} else {
			delete(session.Checked, recordID)
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{RecordID: recordID, Checked: req.Checked})
}

// uploadWorkbook handles POST /sessions/{sessionID}/workbook. Column
// detection runs up-front so a workbook the mutator cannot use is rejected
// before it is stored.
func (s *Server) uploadWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	columns, err := workbook.DetectColumnsFromBytes(data)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	err = s.sessions.Update(ctx, sessionID, func(session *repository.Session) error {
		session.WorkbookName = header.Filename
		session.Workbook = data
		session.WorkbookColumns = &columns
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("filename", header.Filename).
		Str("sheet", columns.Sheet).
		Int("rank_column", columns.Rank).
		Msg("workbook stored")

	writeJSON(w, http.StatusOK, workbookInfoResponse{
		Filename:   header.Filename,
		Sheet:      columns.Sheet,
		RankColumn: columns.Rank,
		NameColumn: columns.Name,
	})
}

// downloadCleanedWorkbook handles GET /sessions/{sessionID}/workbook/cleaned:
// the stored workbook with extra records blanked out and highlighted.
func (s *Server) downloadCleanedWorkbook(w http.ResponseWriter, r *http.Request) {
	s.downloadWorkbook(w, r, "cleaned")
}

// downloadUpdatedWorkbook handles GET /sessions/{sessionID}/workbook/updated:
// the cleaned workbook plus missing records inserted below the anchor row.
func (s *Server) downloadUpdatedWorkbook(w http.ResponseWriter, r *http.Request) {
	s.downloadWorkbook(w, r, "updated")
}

// downloadWorkbook builds the mutation plan for the requested mode, applies
// it to a copy of the stored workbook, and streams the result. A mutation
// failure never touches the stored analysis or workbook bytes.
func (s *Server) downloadWorkbook(w http.ResponseWriter, r *http.Request, mode string) {
	ctx := r.Context()

	sessionID, ok := parseUUID(w, chi.URLParam(r, "sessionID"), "session_id")
	if !ok {
		return
	}

	// Snapshot under the read lock: workbook bytes and the result are only
	// ever replaced wholesale, so the captured references stay stable after
	// the lock is released.
	var (
		source []byte
		name   string
		result *domain.AnalysisResult
	)
	err := s.sessions.View(ctx, sessionID, func(session *repository.Session) error {
		source = session.Workbook
		name = session.WorkbookName
		result = session.Result
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(source) == 0 {
		writeError(w, http.StatusConflict, "no workbook uploaded for this session")
		return
	}
	if result == nil {
		writeError(w, http.StatusConflict, "session has no analysis result")
		return
	}

	plan := workbook.Plan{}
	for _, rec := range result.Extra {
		plan.Delete = append(plan.Delete, rec.NormalizedName)
	}
	var prefix string
	switch mode {
	case "cleaned":
		prefix = "limpia_"
	case "updated":
		prefix = "actualizada_"
		for _, rec := range result.Missing {
			plan.Insert = append(plan.Insert, domain.RawEntry{Rank: rec.RawRank, Name: rec.RawName})
		}
	}

	logger := observability.WithWorkbookContext(s.logger, name, mode)
	out, err := s.mutator.Apply(source, plan)
	if err != nil {
		s.metrics.RecordWorkbookMutation(mode, false)
		logger.Error().Err(err).Msg("workbook mutation failed")
		writeDomainError(w, err)
		return
	}
	s.metrics.RecordWorkbookMutation(mode, true)

	filename := prefix + name
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logger.Warn().Err(err).Msg("workbook download interrupted")
	}
}

// analyze rebuilds the comparison records and replaces the session's result
// snapshot. Callers hold the repository lock when the session is shared.
func (s *Server) analyze(session *repository.Session, trigger string) {
	start := time.Now()

	reference := engine.BuildRecords(domain.SourceParte, session.Parte)
	candidates := engine.BuildRecords(domain.SourceLista, session.Lista)

	logger := observability.WithAnalysisContext(s.logger, len(reference), len(candidates))
	logger = logger.With().Str("session_id", session.ID.String()).Logger()
	for _, name := range engine.DuplicateNames(reference) {
		logger.Warn().Str("source", string(domain.SourceParte)).Str("name", name).Msg("duplicate normalized name")
	}
	for _, name := range engine.DuplicateNames(candidates) {
		logger.Warn().Str("source", string(domain.SourceLista)).Str("name", name).Msg("duplicate normalized name")
	}

	result := engine.Compare(reference, candidates, session.Options, session.Ledger)
	session.Result = &result

	s.metrics.RecordAnalysis(trigger,
		result.ReferenceTotal+result.CandidateTotal,
		len(result.Ambiguous),
		time.Since(start).Seconds())
	logger.Info().
		Str("trigger", trigger).
		Int("missing", len(result.Missing)).
		Int("extra", len(result.Extra)).
		Int("ambiguous", len(result.Ambiguous)).
		Int("matched", result.MatchedTotal).
		Msg("analysis complete")
}

// decodeJSON reads and decodes a JSON request body into v, then validates it.
// It writes the error response itself and reports success to the caller.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to
// clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrIngestion):
		var ie *domain.IngestionError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			writeError(w, http.StatusBadRequest, "roster ingestion failed")
		}
	case errors.Is(err, domain.ErrColumnsNotFound):
		writeError(w, http.StatusUnprocessableEntity, "no rank column detected in workbook")
	case errors.Is(err, domain.ErrAnchorNotFound):
		writeError(w, http.StatusUnprocessableEntity, "insertion anchor row not found in workbook")
	case errors.Is(err, domain.ErrMutation):
		writeError(w, http.StatusInternalServerError, "workbook mutation failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}
