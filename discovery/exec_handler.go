package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
)

// ExecHandler adapts a manifest's handler command into the Handler
// interface. Each invocation runs the command once: the request is written
// to stdin as JSON and the result is read from stdout as JSON.
//
// Stdin payload:
//
//	{"request_text": "...", "domain_context": {...}, "confidence": 0.72}
//
// Expected stdout payload:
//
//	{"content": ..., "result_type": "...", "confidence": 0.9,
//	 "recommendations": [...], "metadata": {...}}
//
// Only content is required. Stderr is forwarded to the log line by line.
type ExecHandler struct {
	manifest   Manifest
	argv       []string
	healthArgv []string
	logger     *zap.SugaredLogger
	metrics    *domains.HandlerMetrics
}

var _ domains.Handler = (*ExecHandler)(nil)

type execRequest struct {
	RequestText   string         `json:"request_text"`
	DomainContext map[string]any `json:"domain_context,omitempty"`
	Confidence    float64        `json:"confidence"`
}

type execResponse struct {
	Content         any            `json:"content"`
	ResultType      string         `json:"result_type,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// NewExecHandler parses the manifest's commands into argv form.
func NewExecHandler(m Manifest, logger *zap.SugaredLogger) (*ExecHandler, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	argv, err := shellquote.Split(m.Handler.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse handler command for domain %q", m.DomainID)
	}
	if len(argv) == 0 {
		return nil, errors.Newf("empty handler command for domain %q", m.DomainID)
	}

	var healthArgv []string
	if m.Handler.HealthCommand != "" {
		healthArgv, err = shellquote.Split(m.Handler.HealthCommand)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse health command for domain %q", m.DomainID)
		}
	}

	return &ExecHandler{
		manifest:   m,
		argv:       argv,
		healthArgv: healthArgv,
		logger:     logger,
		metrics:    domains.NewHandlerMetrics(),
	}, nil
}

// ProcessDomainRequest runs the handler command once for this request.
func (h *ExecHandler) ProcessDomainRequest(ctx context.Context, requestText string, domainContext map[string]any, confidence float64) (*domains.DomainResult, error) {
	payload, err := json.Marshal(execRequest{
		RequestText:   requestText,
		DomainContext: domainContext,
		Confidence:    confidence,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode handler request")
	}

	if h.manifest.Handler.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.manifest.Handler.TimeoutSecs)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.argv[0], h.argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &lineLogger{logger: h.logger, domainID: h.manifest.DomainID}

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "handler command failed for domain %q", h.manifest.DomainID)
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.Wrapf(err, "handler output for domain %q is not valid JSON", h.manifest.DomainID)
	}

	result := &domains.DomainResult{
		DomainID:        h.manifest.DomainID,
		ResultType:      resp.ResultType,
		Content:         resp.Content,
		Confidence:      confidence,
		Recommendations: resp.Recommendations,
		Metadata:        resp.Metadata,
	}
	if result.ResultType == "" {
		result.ResultType = h.manifest.Handler.ResultType
	}
	if resp.Confidence != nil {
		result.Confidence = *resp.Confidence
	}
	return result, nil
}

// Health runs the manifest's health command when configured, otherwise
// checks that the handler binary exists and is executable.
func (h *ExecHandler) Health(ctx context.Context) error {
	if len(h.healthArgv) > 0 {
		cmd := exec.CommandContext(ctx, h.healthArgv[0], h.healthArgv[1:]...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return errors.Wrapf(err, "health command failed for domain %q: %s",
				h.manifest.DomainID, strings.TrimSpace(string(out)))
		}
		return nil
	}

	bin := h.argv[0]
	if strings.ContainsRune(bin, os.PathSeparator) {
		info, err := os.Stat(bin)
		if err != nil {
			return errors.Wrapf(err, "handler binary missing for domain %q", h.manifest.DomainID)
		}
		// Unix-specific: checks permission bits
		if info.Mode()&0111 == 0 {
			return errors.Newf("handler binary not executable: %s", bin)
		}
		return nil
	}

	if _, err := exec.LookPath(bin); err != nil {
		return errors.Wrapf(err, "handler binary not in PATH for domain %q", h.manifest.DomainID)
	}
	return nil
}

// Metrics returns the handler's rolling metrics.
func (h *ExecHandler) Metrics() *domains.HandlerMetrics {
	return h.metrics
}

// lineLogger forwards handler stderr to the log one line at a time.
type lineLogger struct {
	logger   *zap.SugaredLogger
	domainID string
	buf      strings.Builder
}

func (l *lineLogger) Write(p []byte) (n int, err error) {
	l.buf.Write(p)
	for {
		line, rest, found := strings.Cut(l.buf.String(), "\n")
		if !found {
			break
		}
		l.buf.Reset()
		l.buf.WriteString(rest)

		if line = strings.TrimSpace(line); line != "" {
			l.logger.Warnw("Handler stderr",
				"domain_id", l.domainID,
				"message", line)
		}
	}
	return len(p), nil
}
