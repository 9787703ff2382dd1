package emails

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"github.com/yuin/goldmark"
)

const (
	themePrimary   = "#0F3D3E"
	themeAccent    = "#C8A96A"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

var md = goldmark.New()

// renderMarkdown turns an email body written in Markdown into HTML. Raw HTML in
// the source is dropped by goldmark's default renderer.
func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmailLayout wraps content in the branded HTML shell.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Liyantis</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 20px 0; color: %s; }
    .content-body a { color: %s; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td style="padding: 40px 48px 8px 48px; font-size: 20px; font-weight: 700; letter-spacing: 0.2em; color: %s;">LIYANTIS</td></tr>
          <tr><td class="content-body" style="padding: 24px 48px;">%s</td></tr>
          <tr><td align="center" style="padding: 24px 48px 40px 48px;"><p class="footer-text">© %d Liyantis. All rights reserved.</p></td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themeAccent, themeTextMuted,
		themeBgBody, themeWhite, themePrimary, contentHTML, time.Now().Year())
}

// EscapeMarkdownText escapes user-provided text before it is placed in a Markdown template.
func EscapeMarkdownText(s string) string {
	s = html.EscapeString(s)
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '\\', '*', '_', '[', ']', '`', '#', '!', '<', '>':
			buf.WriteByte('\\')
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
