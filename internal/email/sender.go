package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
	// baseUrl is the public address of the web client, used to build
	// sign-in and registration links.
	baseUrl string
}

func NewSender(host string, port int, username, password, from, baseUrl string) *Sender {
	dialer := gomail.NewDialer(host, port, username, password)
	return &Sender{
		dialer:  dialer,
		from:    from,
		baseUrl: baseUrl,
	}
}

func (s *Sender) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *Sender) SendInvite(to, inviterName string) error {
	subject := fmt.Sprintf("%s invited you to join Parley!", inviterName)
	body, err := renderTemplate(inviteTmpl, map[string]string{
		"InviterName":  inviterName,
		"RegisterLink": s.baseUrl + "/register",
		"LoginLink":    s.baseUrl + "/login",
	})
	if err != nil {
		return fmt.Errorf("failed to render invite email: %w", err)
	}
	return s.sendEmail(to, subject, body)
}

func (s *Sender) SendPasswordReset(to, displayName, token string) error {
	subject := "Password Reset Request"
	body, err := renderTemplate(resetTmpl, map[string]string{
		"DisplayName": displayName,
		"ResetLink":   s.baseUrl + "/reset-password?token=" + token,
	})
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}
	return s.sendEmail(to, subject, body)
}

func renderTemplate(t *template.Template, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var inviteTmpl = template.Must(template.New("invite").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">You're invited to Parley!</h1>
  <p style="font-size: 16px; color: #555;">
    {{.InviterName}} has invited you to join our chat application.
  </p>
  <p style="font-size: 16px; color: #555;">
    Click the button below to create your account and start chatting:
  </p>
  <a href="{{.RegisterLink}}"
     style="display: inline-block; background-color: #4F46E5; color: white;
            padding: 12px 24px; text-decoration: none; border-radius: 6px;
            margin: 20px 0; font-weight: bold;">
    Join Parley
  </a>
  <p style="font-size: 14px; color: #888;">
    Already have an account? <a href="{{.LoginLink}}">Sign in</a>.
  </p>
  <p style="font-size: 14px; color: #888;">
    Or copy this link: {{.RegisterLink}}
  </p>
</div>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Password reset</h1>
  <p style="font-size: 16px; color: #555;">
    Hi {{.DisplayName}}, we received a request to reset your password.
  </p>
  <a href="{{.ResetLink}}"
     style="display: inline-block; background-color: #4F46E5; color: white;
            padding: 12px 24px; text-decoration: none; border-radius: 6px;
            margin: 20px 0; font-weight: bold;">
    Reset password
  </a>
  <p style="font-size: 14px; color: #888;">
    If you did not request this, you can ignore this email.
  </p>
</div>
`))
