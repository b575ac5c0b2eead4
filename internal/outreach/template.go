package outreach

import (
	"fmt"
	"strings"
)

// RenderedEmail is a final email ready to be sent: subject plus HTML and
// plain-text bodies.
type RenderedEmail struct {
	Subject   string
	HTMLBody  string
	PlainBody string
}

// Render wraps an AI-drafted plain-text email in a clean HTML template. The
// subject and plain body pass through unaltered.
func Render(subject, plainBody, senderName string) RenderedEmail {
	var paragraphs []string
	for _, line := range strings.Split(strings.TrimSpace(plainBody), "\n") {
		if strings.TrimSpace(line) == "" {
			paragraphs = append(paragraphs, "<br>")
		} else {
			paragraphs = append(paragraphs, fmt.Sprintf("<p>%s</p>", line))
		}
	}
	htmlContent := strings.Join(paragraphs, "\n")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      font-size: 15px;
      line-height: 1.6;
      color: #1a1a1a;
      background: #ffffff;
      margin: 0;
      padding: 0;
    }
    .container {
      max-width: 600px;
      margin: 40px auto;
      padding: 0 24px;
    }
    p {
      margin: 0 0 12px 0;
    }
    .signature {
      margin-top: 32px;
      color: #555;
      font-size: 14px;
      border-top: 1px solid #eee;
      padding-top: 16px;
    }
  </style>
</head>
<body>
  <div class="container">
    %s
    <div class="signature">
      <strong>%s</strong>
    </div>
  </div>
</body>
</html>`, subject, htmlContent, senderName)

	return RenderedEmail{
		Subject:   subject,
		HTMLBody:  htmlBody,
		PlainBody: plainBody,
	}
}
