package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// Kept deliberately plain; the frontend owns the styled landing page the
// link points at.
var verificationHTML = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Email Verification - Zamindar College</title>
</head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #4f46e5;">Zamindar College Student Portal</h2>
  <p>Hello {{.Name}},</p>
  <p>Thank you for registering. Please confirm your email address by clicking the button below.
     The link is valid for 24 hours.</p>
  <p style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; background: #4f46e5; color: white; padding: 14px 28px; text-decoration: none; border-radius: 6px;">Verify Email</a>
  </p>
  <p>If the button does not work, copy this link into your browser:</p>
  <p style="word-break: break-all; font-family: monospace;">{{.Link}}</p>
  <p>If you did not create an account, you can safely ignore this email.</p>
</body>
</html>
`))

type templateData struct {
	Name string
	Link string
}

// VerificationLink builds the link the frontend verify-email page handles.
func VerificationLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", frontendURL, token)
}

func renderVerificationHTML(name, link string) (string, error) {
	var buf bytes.Buffer

	err := verificationHTML.Execute(&buf, templateData{Name: name, Link: link})

	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderVerificationText(name, link string) string {
	return fmt.Sprintf(
		"Hello %s,\n\nThank you for registering with the Zamindar College Student Portal.\n"+
			"Please verify your email address by opening the link below (valid for 24 hours):\n\n%s\n\n"+
			"If you did not create an account, you can safely ignore this email.\n",
		name, link,
	)
}
