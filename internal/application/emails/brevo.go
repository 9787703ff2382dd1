package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest is the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	ReplyTo     *BrevoContact  `json:"replyTo,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. A nil Sender means email is disabled.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendReportLink(ctx context.Context, toEmail, projectName, link string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@liyantis.com"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, markdown string) error {
	if c.APIKey == "" {
		return nil
	}
	content, err := renderMarkdown(markdown)
	if err != nil {
		return err
	}
	body, err := json.Marshal(BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "Liyantis"},
		To:          []BrevoContact{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: EmailLayout(content),
		ReplyTo:     &BrevoContact{Email: "support@liyantis.com", Name: "Liyantis Support"},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent after registration.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to Liyantis", welcomeContent(firstName))
}

// SendReportLink mails a shared project report link.
func (c *BrevoClient) SendReportLink(ctx context.Context, toEmail, projectName, link string) error {
	return c.send(ctx, toEmail, "Investment report: "+projectName, reportLinkContent(projectName, link))
}

func welcomeContent(firstName string) string {
	return fmt.Sprintf(`# Welcome, %s!

Your **Liyantis** account is ready. Add your first project to see its payment timeline, cost breakdown and exit scenarios.

If you did not sign up for this account, please contact support.

The Liyantis Team
`, EscapeMarkdownText(firstName))
}

func reportLinkContent(projectName, link string) string {
	return fmt.Sprintf(`# %s

An investment report has been shared with you.

[Open the report](<%s>)

The link expires in 7 days.
`, EscapeMarkdownText(projectName), link)
}
