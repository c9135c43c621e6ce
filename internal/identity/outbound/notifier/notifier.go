package notifier

import (
	"bytes"
	"context"
	"html/template"

	"github.com/shandysiswandi/fintrack/internal/identity/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"
)

// placeholder funcs let the template parse once; each send clones it and
// binds the funcs of the recipient's language.
//
//nolint:gochecknoglobals // parsed once
var passcodeTemplate = template.Must(template.New("passcode").
	Funcs(template.FuncMap{"t": func(string, ...map[string]any) string { return "" }, "tn": func(string, int, ...map[string]any) string { return "" }}).
	Option("missingkey=zero").
	Parse(`<!doctype html>
<html lang="{{.lang}}">
<body style="font-family:Arial,sans-serif;color:#1f2937">
  <p>{{t "passcode_greeting" .}}</p>
  <p>{{t .intro_id .}}</p>
  <p style="font-size:28px;font-weight:bold;letter-spacing:6px">{{.code}}</p>
  <p>{{tn "passcode_expires" .expires_minutes .}}</p>
  <p>{{.company_name}}</p>
</body>
</html>`))

// messageIDs maps a passcode template to its subject and intro messages.
//
//nolint:gochecknoglobals // read only lookup
var messageIDs = map[usecase.PasscodeTemplate][2]string{
	usecase.PasscodeTemplateSignupVerify: {"passcode_subject_signup", "passcode_intro_signup"},
	usecase.PasscodeTemplateLogin:        {"passcode_subject_login", "passcode_intro_login"},
	usecase.PasscodeTemplateNewCode:      {"passcode_subject_new_code", "passcode_intro_new_code"},
}

// Mail delivers passcodes synchronously so the caller can react to failures.
type Mail struct {
	client  mail.Mail
	tr      *i18n.Translator
	from    string
	company string
	ins     instrument.Instrumentation
}

type Config struct {
	Client      mail.Mail
	Translator  *i18n.Translator
	From        string
	CompanyName string
	Instrument  instrument.Instrumentation
}

func New(cfg Config) *Mail {
	company := cfg.CompanyName
	if company == "" {
		company = "Fintrack"
	}
	return &Mail{client: cfg.Client, tr: cfg.Translator, from: cfg.From, company: company, ins: cfg.Instrument}
}

// SendPasscode writes the email in the language stored on the account, or in
// the language of the current request when the account has none.
func (m *Mail) SendPasscode(ctx context.Context, msg usecase.PasscodeDelivery) (err error) {
	ctx, span := m.ins.Tracer("identity.outbound.notifier").Start(ctx, "SendPasscode")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	lang := i18n.Language(ctx)
	if msg.Language != "" {
		lang = m.tr.Match(msg.Language)
	}

	ids, ok := messageIDs[msg.Template]
	if !ok {
		ids = messageIDs[usecase.PasscodeTemplateSignupVerify]
	}

	minutes := int(msg.ExpiresIn.Minutes())
	data := map[string]any{
		"lang":            lang.String(),
		"full_name":       msg.FullName,
		"intro_id":        ids[1],
		"code":            msg.Code,
		"expires_minutes": minutes,
		"company_name":    m.company,
	}

	html, err := m.render(lang, data)
	if err != nil {
		return err
	}

	return m.client.Send(ctx, mail.Message{
		From:     m.from,
		To:       []string{msg.Email},
		Subject:  m.tr.T(lang, ids[0], data),
		TextBody: m.tr.TPlural(lang, "passcode_text", minutes, data),
		HTMLBody: html,
	})
}

func (m *Mail) render(lang language.Tag, data map[string]any) (string, error) {
	tpl, err := passcodeTemplate.Clone()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Funcs(m.tr.Funcs(lang)).Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
