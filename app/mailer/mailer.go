// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"html/template"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"gopkg.in/gomail.v2"
)

var resetEmailTemplate = template.Must(template.New("reset").Parse(`<p>Kedves {{.Name}}!</p>
<p>Jelszó-visszaállítást kértél a(z) {{.AppName}} fiókodhoz.</p>
<p>Az új jelszó megadásához kattints <a href="{{.Link}}">ide</a>.</p>
<p>A link {{.ValidMinutes}} percig érvényes. Ha nem te kérted, hagyd figyelmen kívül ezt az üzenetet.</p>
`))

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender  sender
	from    string
	appName string
}

func New(cfg config.MailConfig, appName string) *Mailer {
	return &Mailer{
		sender:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		appName: appName,
	}
}

func newWithSender(s sender, from, appName string) *Mailer {
	return &Mailer{sender: s, from: from, appName: appName}
}

type PasswordResetEmail struct {
	To           string
	Name         string
	Link         string
	ValidMinutes int
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email PasswordResetEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := resetEmailTemplate.Execute(&body, struct {
		PasswordResetEmail
		AppName string
	}{email, m.appName}); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", m.appName+" - jelszó visszaállítása")
	msg.SetBody("text/html", body.String())

	return m.sender.DialAndSend(msg)
}
