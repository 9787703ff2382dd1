package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"liyantis-backend/internal/application/emails"
	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"

	"github.com/rs/zerolog/log"
)

const (
	defaultBucket    = "reports"
	defaultLinkValid = 7 * 24 * time.Hour
)

// Service renders and shares reports. Storage and Mailer may be nil.
type Service struct {
	Storage   Storage
	Bucket    string
	LinkValid time.Duration
	Mailer    emails.Sender
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Build assembles the report for p stamped with the service clock.
func (s *Service) Build(p domain.Project, a finance.Analysis) Report {
	return Build(p, a, s.now())
}

// RenderPDF returns the PDF bytes of the report for p.
func (s *Service) RenderPDF(p domain.Project, a finance.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Build(p, a).PDF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderHTML returns the HTML page of the report for p.
func (s *Service) RenderHTML(p domain.Project, a finance.Analysis) ([]byte, error) {
	return s.Build(p, a).HTML()
}

// ShareResult is what the share endpoint returns.
type ShareResult struct {
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expiresAt"`
	EmailedTo string    `json:"emailedTo,omitempty"`
}

// Share uploads the PDF and returns a signed link. When emailTo is set the link is also mailed.
func (s *Service) Share(ctx context.Context, p domain.Project, a finance.Analysis, emailTo string) (*ShareResult, error) {
	if s.Storage == nil {
		return nil, ErrStorageNotConfigured
	}
	pdf, err := s.RenderPDF(p, a)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	now := s.now()
	path := fmt.Sprintf("%s/%s-%d.pdf", p.AgentID, p.ProjectID, now.UnixMilli())
	bucket := s.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	valid := s.LinkValid
	if valid <= 0 {
		valid = defaultLinkValid
	}

	if err := s.Storage.Upload(ctx, bucket, path, "application/pdf", pdf); err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}
	url, err := s.Storage.SignedURL(ctx, bucket, path, valid)
	if err != nil {
		return nil, fmt.Errorf("sign report url: %w", err)
	}

	res := &ShareResult{URL: url, Path: path, ExpiresAt: now.Add(valid)}
	if to := strings.TrimSpace(emailTo); to != "" && s.Mailer != nil {
		if err := s.Mailer.SendReportLink(ctx, to, p.ProjectName, url); err != nil {
			log.Warn().Err(err).Str("project_id", p.ProjectID.String()).Msg("report link email failed")
		} else {
			res.EmailedTo = to
		}
	}
	return res, nil
}
