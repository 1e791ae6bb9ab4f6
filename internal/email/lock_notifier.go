package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

const lockSubject = "Tu cuenta fue bloqueada"

var lockText = texttemplate.Must(texttemplate.New("lock_txt").Parse(
	`Hola {{.Name}},

Tu cuenta ({{.Username}}) fue bloqueada.
Motivo: {{.Reason}}
{{if .Until}}Podrás volver a ingresar a partir de {{.Until}}.{{else}}El bloqueo se mantiene hasta que un administrador lo levante.{{end}}

Si no reconocés esta actividad contactá a tu administrador.
`))

var lockHTML = htmltemplate.Must(htmltemplate.New("lock_html").Parse(
	`<p>Hola {{.Name}},</p>
<p>Tu cuenta (<b>{{.Username}}</b>) fue bloqueada.<br>Motivo: {{.Reason}}</p>
{{if .Until}}<p>Podrás volver a ingresar a partir de {{.Until}}.</p>{{else}}<p>El bloqueo se mantiene hasta que un administrador lo levante.</p>{{end}}
<p>Si no reconocés esta actividad contactá a tu administrador.</p>
`))

var reasonLabels = map[string]string{
	"too_many_failed_attempts": "demasiados intentos fallidos",
	"admin":                    "decisión administrativa",
}

type lockVars struct {
	Name     string
	Username string
	Reason   string
	Until    string
}

// LockNotifier avisa por email que una cuenta fue bloqueada.
// Identidades sin email se ignoran.
type LockNotifier struct {
	sender Sender
	loc    *time.Location
}

// NewLockNotifier crea el notifier. loc nil usa UTC.
func NewLockNotifier(sender Sender, loc *time.Location) *LockNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &LockNotifier{sender: sender, loc: loc}
}

func (n *LockNotifier) AccountLocked(ctx context.Context, identity *repository.Identity, until *time.Time, reason string) error {
	if identity == nil || strings.TrimSpace(identity.Email) == "" {
		return nil
	}
	v := lockVars{Name: identity.Name, Username: identity.Username, Reason: reason}
	if v.Name == "" {
		v.Name = identity.Username
	}
	if label, ok := reasonLabels[reason]; ok {
		v.Reason = label
	}
	if until != nil {
		v.Until = until.In(n.loc).Format("02/01/2006 15:04 MST")
	}

	var txt, html bytes.Buffer
	if err := lockText.Execute(&txt, v); err != nil {
		return fmt.Errorf("render lock text: %w", err)
	}
	if err := lockHTML.Execute(&html, v); err != nil {
		return fmt.Errorf("render lock html: %w", err)
	}
	return n.sender.Send(identity.Email, lockSubject, html.String(), txt.String())
}
