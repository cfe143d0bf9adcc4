// Package runner triggers firmware compilations on the external CI system.
// The orchestrator treats it as an opaque dispatch capability: it fires a
// GitHub Actions workflow_dispatch and returns, and the run reports back
// through the webhook with the build id it was given.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"meshforge/backend/common"
	"meshforge/backend/model"
)

type GitHubRunner struct {
	Token    string
	Repo     string // "owner/repo"
	Workflow string // workflow file name, e.g. firmware-build.yml
	Ref      string

	client *http.Client
}

// NewGitHubRunner builds a runner from the global config. Token or repo may be
// empty; Dispatch then degrades to record-only.
func NewGitHubRunner() *GitHubRunner {
	return &GitHubRunner{
		Token:    common.GitHubToken,
		Repo:     common.GitHubRepo,
		Workflow: common.GitHubWorkflow,
		Ref:      common.GitHubRef,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Dispatch asks GitHub Actions to run the firmware build workflow for this
// build. The run id is not known yet at this point; the workflow reports it
// back via the webhook together with its status.
func (r *GitHubRunner) Dispatch(ctx context.Context, build *model.Build, profile *model.Profile) error {
	if r.Token == "" || r.Repo == "" {
		common.SysLog(fmt.Sprintf("github runner not configured, build %d recorded without dispatch", build.ID))
		return nil
	}

	payload := map[string]any{
		"ref": r.Ref,
		"inputs": map[string]string{
			"build_id":   strconv.FormatInt(build.ID, 10),
			"target":     build.Target,
			"build_hash": build.BuildHash,
			"version":    build.Version,
			"config":     profile.ConfigJSON,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/actions/workflows/%s/dispatches", r.Repo, r.Workflow)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("workflow dispatch returned %d: %s", resp.StatusCode, string(respBody))
	}
	common.SysLog(fmt.Sprintf("dispatched build %d (%s @ %s) to github actions", build.ID, build.Target, build.Version))
	return nil
}
