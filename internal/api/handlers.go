package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sprite-ai/wizmerge/internal/analysis"
	"github.com/sprite-ai/wizmerge/internal/diff"
	"github.com/sprite-ai/wizmerge/internal/merge"
	"github.com/sprite-ai/wizmerge/internal/model"
	"github.com/sprite-ai/wizmerge/internal/platform"
	"github.com/sprite-ai/wizmerge/internal/prresolve"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Merge ---

// RunMerge performs the merge described by req. It backs both the HTTP
// endpoint and the CLI when no backend is configured.
func RunMerge(req MergeRequest) (*MergeResponse, error) {
	resp, _, err := runMerge(req)
	return resp, err
}

// runMerge also reports how many conflicts existed before auto-resolution.
func runMerge(req MergeRequest) (*MergeResponse, int, error) {
	base, ours, theirs, err := mergeInputs(req)
	if err != nil {
		return nil, 0, err
	}

	var strategy model.Strategy
	if req.Resolve != "" {
		var ok bool
		if strategy, ok = model.ParseStrategy(req.Resolve); !ok {
			return nil, 0, fmt.Errorf("%w: unknown resolve strategy %q", ErrInvalidRequest, req.Resolve)
		}
	}

	result := merge.Merge(base, ours, theirs)
	raw := len(result.Conflicts)
	if req.AutoResolve == nil || *req.AutoResolve {
		result = merge.AutoResolve(result)
	}

	resp := mergeResponse(result)
	if req.Resolve != "" {
		resp.Resolved = nonNil(merge.ResolveAll(result, strategy))
	}
	return resp, raw, nil
}

func mergeResponse(result model.MergeResult) *MergeResponse {
	resp := &MergeResponse{
		Merged:       nonNil(result.Contents()),
		Lines:        linesJSON(result.MergedLines),
		Conflicts:    make([]ConflictJSON, 0, len(result.Conflicts)),
		HasConflicts: result.HasConflicts(),
		Summary:      summaryJSON(merge.Summarize(result)),
	}
	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictJSON(c))
	}
	return resp
}

// mergeInputs validates req and materialises the three sides.
func mergeInputs(req MergeRequest) (base, ours, theirs []string, err error) {
	if req.Base == nil {
		return nil, nil, nil, fmt.Errorf("%w: base is required", ErrInvalidRequest)
	}
	if ours, err = side("ours", req.Base, req.Ours, req.OursPatch); err != nil {
		return nil, nil, nil, err
	}
	if theirs, err = side("theirs", req.Base, req.Theirs, req.TheirsPatch); err != nil {
		return nil, nil, nil, err
	}
	return req.Base, ours, theirs, nil
}

// side returns the content of one side, applying patch to base when the
// content itself is absent.
func side(name string, base, lines []string, patch string) ([]string, error) {
	switch {
	case lines != nil && patch != "":
		return nil, fmt.Errorf("%w: %s and %s_patch are mutually exclusive", ErrInvalidRequest, name, name)
	case lines != nil:
		return lines, nil
	case patch != "":
		out, err := diff.ApplyPatch(base, patch)
		if err != nil {
			return nil, fmt.Errorf("%w: %s_patch: %w", ErrInvalidRequest, name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp, raw, err := runMerge(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.observeMerge(raw, len(resp.Conflicts))
	writeJSON(w, http.StatusOK, resp)
}

// --- Risk ---

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req RiskRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Base == nil || req.Ours == nil || req.Theirs == nil {
		writeError(w, http.StatusBadRequest, "base, ours and theirs are required")
		return
	}
	writeJSON(w, http.StatusOK, RunRisk(req))
}

// RunRisk scores the three resolution strategies for one conflict.
func RunRisk(req RiskRequest) RiskResponse {
	return RiskResponse{
		Ours:   riskJSON(analysis.AnalyzeRiskOurs(req.Base, req.Ours, req.Theirs)),
		Theirs: riskJSON(analysis.AnalyzeRiskTheirs(req.Base, req.Ours, req.Theirs)),
		Both:   riskJSON(analysis.AnalyzeRiskBoth(req.Base, req.Ours, req.Theirs)),
	}
}

// --- Context ---

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	resp, err := RunContext(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RunContext describes the code around req.Start..req.End.
func RunContext(req ContextRequest) (ContextJSON, error) {
	if req.Start < 0 || req.End < req.Start {
		return ContextJSON{}, fmt.Errorf("%w: start and end must satisfy 0 <= start <= end", ErrInvalidRequest)
	}
	window := analysis.DefaultContextWindow
	if req.Window != nil {
		window = max(*req.Window, 0)
	}
	return contextJSON(analysis.AnalyzeContext(req.Lines, req.Start, req.End, window)), nil
}

// --- Pull requests ---

func (s *Server) handlePRResolve(w http.ResponseWriter, r *http.Request) {
	var req PRResolveRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.PRURL == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: pr_url")
		return
	}
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "pull request resolution is not configured")
		return
	}

	token := req.APIToken
	if token == "" {
		token = req.GitHubToken
	}

	report, err := s.resolver.Resolve(r.Context(), prresolve.Request{
		URL:          req.PRURL,
		Token:        token,
		CreateBranch: req.CreateBranch,
		BranchName:   req.BranchName,
	})
	switch {
	case errors.Is(err, prresolve.ErrInvalidURL):
		s.metrics.prResolutions.WithLabelValues("invalid_url").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  prresolve.ErrInvalidURL.Error(),
			"pr_url": req.PRURL,
			"note":   "Supported platforms: GitHub (pull requests) and GitLab (merge requests)",
		})
		return
	case err != nil:
		s.metrics.prResolutions.WithLabelValues("fetch_failed").Inc()
		log.Warn().Err(err).Str("pr_url", req.PRURL).Msg("Pull request resolution failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":  prresolve.ErrFetchFailed.Error(),
			"pr_url": req.PRURL,
		})
		return
	}

	s.metrics.prResolutions.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, PRResolveReport(report))
}

// PRResolveReport converts a resolution report to its wire form.
func PRResolveReport(r *prresolve.Report) PRResolveResponse {
	resp := PRResolveResponse{
		Success:       true,
		ResolvedFiles: make([]PRFileJSON, 0, len(r.Files)),
		TotalFiles:    r.TotalFiles,
		ResolvedCount: r.ResolvedCount,
		FailedCount:   r.FailedCount,
		BranchCreated: r.BranchCreated,
		BranchName:    r.BranchName,
		BranchPath:    r.BranchPath,
		Note:          r.Note,
	}
	if pr := r.PR; pr != nil {
		resp.PRInfo = PRInfoJSON{
			Platform:       platformName(pr.Ref.Platform),
			Number:         pr.Ref.Number,
			Title:          pr.Title,
			State:          pr.State,
			BaseRef:        pr.BaseRef,
			HeadRef:        pr.HeadRef,
			BaseSHA:        pr.BaseSHA,
			HeadSHA:        pr.HeadSHA,
			Mergeable:      pr.Mergeable,
			MergeableState: pr.MergeableState,
		}
	}
	for _, f := range r.Files {
		resp.ResolvedFiles = append(resp.ResolvedFiles, PRFileJSON{
			Filename:      f.Filename,
			Status:        f.Status,
			Skipped:       f.Skipped,
			Reason:        f.Reason,
			Error:         f.Error,
			HadConflicts:  f.HadConflicts,
			AutoResolved:  f.AutoResolved,
			LockFile:      f.LockFile,
			MergedContent: f.MergedContent,
		})
	}
	return resp
}

func platformName(p platform.Platform) string {
	switch p {
	case platform.GitHub:
		return "GitHub"
	case platform.GitLab:
		return "GitLab"
	default:
		return p.String()
	}
}
