package httpserver

import (
	"time"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/repository"
)

// Session response types for JSON serialization.

type sessionResponse struct {
	SessionID  string                `json:"session_id"`
	Thresholds thresholdsResponse    `json:"thresholds"`
	Result     resultResponse        `json:"result"`
	Decisions  []decisionResponse    `json:"decisions,omitempty"`
	Workbook   *workbookInfoResponse `json:"workbook,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

type thresholdsResponse struct {
	AutoThreshold      int `json:"auto_threshold"`
	DetectiveThreshold int `json:"detective_threshold"`
}

type resultResponse struct {
	Missing        []missingRecordResponse `json:"missing"`
	Extra          []recordResponse        `json:"extra"`
	Ambiguous      []ambiguousResponse     `json:"ambiguous"`
	ReferenceTotal int                     `json:"reference_total"`
	CandidateTotal int                     `json:"candidate_total"`
	MatchedTotal   int                     `json:"matched_total"`
}

type recordResponse struct {
	ID             string `json:"id"`
	RawRank        string `json:"raw_rank"`
	RawName        string `json:"raw_name"`
	NormalizedRank string `json:"normalized_rank"`
	NormalizedName string `json:"normalized_name"`
	Index          int    `json:"index"`
}

type missingRecordResponse struct {
	recordResponse
	Checked bool `json:"checked"`
}

type ambiguousResponse struct {
	Falta recordResponse `json:"falta"`
	Sobra recordResponse `json:"sobra"`
	Score int            `json:"score"`
}

type decisionResponse struct {
	RefID   string `json:"ref_id"`
	CandID  string `json:"cand_id"`
	Verdict string `json:"verdict"`
}

type workbookInfoResponse struct {
	Filename   string `json:"filename"`
	Sheet      string `json:"sheet"`
	RankColumn int    `json:"rank_column"`
	NameColumn int    `json:"name_column"`
}

type checkResponse struct {
	RecordID string `json:"record_id"`
	Checked  bool   `json:"checked"`
}

// Converter functions

func sessionToResponse(s *repository.Session) sessionResponse {
	resp := sessionResponse{
		SessionID: s.ID.String(),
		Thresholds: thresholdsResponse{
			AutoThreshold:      s.Options.AutoThreshold,
			DetectiveThreshold: s.Options.DetectiveThreshold,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}

	if s.Result != nil {
		resp.Result = resultToResponse(s.Result, s.Checked)
	}

	if s.Ledger != nil {
		for _, d := range s.Ledger.Decisions() {
			resp.Decisions = append(resp.Decisions, decisionResponse{
				RefID:   d.Key.Ref,
				CandID:  d.Key.Cand,
				Verdict: string(d.Verdict),
			})
		}
	}

	if s.WorkbookName != "" && s.WorkbookColumns != nil {
		resp.Workbook = &workbookInfoResponse{
			Filename:   s.WorkbookName,
			Sheet:      s.WorkbookColumns.Sheet,
			RankColumn: s.WorkbookColumns.Rank,
			NameColumn: s.WorkbookColumns.Name,
		}
	}

	return resp
}

func resultToResponse(r *domain.AnalysisResult, checked map[string]bool) resultResponse {
	resp := resultResponse{
		Missing:        make([]missingRecordResponse, len(r.Missing)),
		Extra:          make([]recordResponse, len(r.Extra)),
		Ambiguous:      make([]ambiguousResponse, len(r.Ambiguous)),
		ReferenceTotal: r.ReferenceTotal,
		CandidateTotal: r.CandidateTotal,
		MatchedTotal:   r.MatchedTotal,
	}
	for i, rec := range r.Missing {
		resp.Missing[i] = missingRecordResponse{
			recordResponse: recordToResponse(rec),
			Checked:        checked[rec.IdentityKey],
		}
	}
	for i, rec := range r.Extra {
		resp.Extra[i] = recordToResponse(rec)
	}
	for i, pair := range r.Ambiguous {
		resp.Ambiguous[i] = ambiguousResponse{
			Falta: recordToResponse(pair.Falta),
			Sobra: recordToResponse(pair.Sobra),
			Score: pair.Score,
		}
	}
	return resp
}

func recordToResponse(r domain.Record) recordResponse {
	return recordResponse{
		ID:             r.IdentityKey,
		RawRank:        r.RawRank,
		RawName:        r.RawName,
		NormalizedRank: r.NormalizedRank,
		NormalizedName: r.NormalizedName,
		Index:          r.Index,
	}
}
