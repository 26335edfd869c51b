package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds a single artifact download. The hub serves
// artifacts up to a few hundred megabytes; a stalled transfer past this bound
// is reported as a transport error.
const DefaultFetchTimeout = 5 * time.Minute

// hubClient handles HTTP communication with the remote model hub.
// Artifacts are addressed by (repository, filename) and served as whole
// files; a bearer token authorizes access to consent-gated repositories.
type hubClient struct {
	// baseURL is the base URL of the hub (e.g. "https://huggingface.co").
	baseURL string

	// httpClient is used for HTTP requests.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// timeout bounds each fetch. Zero means DefaultFetchTimeout.
	timeout time.Duration
}

// newHubClient creates a new hub client.
// The baseURL is normalized by removing any trailing slashes.
func newHubClient(baseURL string, client HTTPClient, logger Logger, timeout time.Duration) *hubClient {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &hubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
		timeout:    timeout,
	}
}

// resolveURL returns the download URL for a candidate.
func (h *hubClient) resolveURL(c SourceCandidate) string {
	return h.baseURL + "/" + c.RepoID + "/resolve/main/" + c.Filename
}

// fetch downloads one candidate into destPath and classifies the result.
// The transport status alone is not acceptance: the caller still has to
// content-sniff the staged bytes before promoting them. The onProgress
// callback, if non-nil, receives the cumulative bytes read and the declared
// payload size (0 when the hub sent no Content-Length).
func (h *hubClient) fetch(ctx context.Context, c SourceCandidate, cred CredentialProvider, destPath string, onProgress func(fetched, total int64)) FetchOutcome {
	url := h.resolveURL(c)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchOutcome{
			Candidate: c,
			Status:    FetchTransportError,
			Detail:    fmt.Sprintf("creating request: %v", err),
		}
	}

	token, err := cred.Token(ctx)
	if err != nil {
		return FetchOutcome{
			Candidate: c,
			Status:    FetchTransportError,
			Detail:    fmt.Sprintf("credential provider: %v", err),
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		detail := fmt.Sprintf("fetching %s: %v", c, err)
		if errors.Is(err, context.DeadlineExceeded) {
			detail = fmt.Sprintf("fetching %s: timed out after %s", c, h.timeout)
		}
		return FetchOutcome{Candidate: c, Status: FetchTransportError, Detail: detail}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return FetchOutcome{
			Candidate: c,
			Status:    FetchNotFound,
			Detail:    fmt.Sprintf("%s: not registered under this name", c),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return FetchOutcome{
			Candidate: c,
			Status:    FetchConsentRequired,
			Detail:    consentDetail(c, url),
		}
	case resp.StatusCode != http.StatusOK:
		return FetchOutcome{
			Candidate: c,
			Status:    FetchTransportError,
			Detail:    fmt.Sprintf("fetching %s: status %d", c, resp.StatusCode),
		}
	}

	size, err := h.writeBody(resp, destPath, onProgress)
	if err != nil {
		os.Remove(destPath)
		return FetchOutcome{
			Candidate: c,
			Status:    FetchTransportError,
			Detail:    fmt.Sprintf("downloading %s: %v", c, err),
		}
	}

	if h.logger != nil {
		h.logger.Debug("artifact fetched", "candidate", c.String(), "size", size)
	}

	return FetchOutcome{
		Candidate:  c,
		Status:     FetchSuccess,
		StagedPath: destPath,
		ByteSize:   size,
	}
}

// writeBody streams the response body to destPath, reporting progress.
func (h *hubClient) writeBody(resp *http.Response, destPath string, onProgress func(fetched, total int64)) (int64, error) {
	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating staging file: %w", err)
	}

	var reader io.Reader = resp.Body
	if onProgress != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		var fetched int64
		reader = &progressReader{reader: resp.Body, onProgress: func(delta int64) {
			fetched += delta
			onProgress(fetched, total)
		}}
	}

	written, err := io.Copy(out, reader)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	return written, nil
}

// consentDetail builds the operator-actionable message for a consent-gated
// rejection, naming the exact hub location that needs consent granted.
func consentDetail(c SourceCandidate, url string) string {
	return fmt.Sprintf("access to %s requires consent: accept the user agreement for %s on the hub and provide a token", c, c.RepoID) +
		fmt.Sprintf(" (requested %s)", url)
}

// progressReader wraps an io.Reader and reports progress as bytes are read.
type progressReader struct {
	reader     io.Reader
	onProgress func(delta int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}

// verifyFileHash computes the SHA-256 of the file at path and compares it to
// expectedHash (lowercase hex). Returns ErrHashMismatch on mismatch.
func verifyFileHash(path, expectedHash string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening staged file: %v", ErrStorage, err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("%w: hashing staged file: %v", ErrStorage, err)
	}

	actual := hex.EncodeToString(hash.Sum(nil))
	if actual != strings.ToLower(expectedHash) {
		return fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, actual, expectedHash)
	}
	return nil
}
