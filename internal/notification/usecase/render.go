package usecase

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"golang.org/x/text/language"
)

type rendered struct {
	Subject string
	HTML    string
}

// render localizes tpl into lang. The subject is plain text so it is not
// HTML escaped; the body is.
func (s *Usecase) render(tpl *entity.Template, lang language.Tag, data map[string]any) (*rendered, error) {
	funcs := s.translator.Funcs(lang)

	subject, err := texttemplate.New("subject").Funcs(texttemplate.FuncMap(funcs)).Option("missingkey=zero").Parse(tpl.Subject)
	if err != nil {
		return nil, err
	}
	body, err := htmltemplate.New("body").Funcs(funcs).Option("missingkey=zero").Parse(tpl.Body)
	if err != nil {
		return nil, err
	}

	var sb, bb bytes.Buffer
	if err := subject.Execute(&sb, data); err != nil {
		return nil, err
	}
	if err := body.Execute(&bb, data); err != nil {
		return nil, err
	}

	return &rendered{Subject: strings.TrimSpace(sb.String()), HTML: bb.String()}, nil
}

// baseData holds values every email template may use.
func (s *Usecase) baseData(lang language.Tag) map[string]any {
	web := strings.TrimRight(s.cfg.GetString("app.web"), "/")
	return map[string]any{
		"lang":          lang.String(),
		"company_name":  s.cfg.GetString("app.name"),
		"support_email": s.cfg.GetString("app.support_email"),
		"web_url":       web,
		"dashboard_url": web + "/dashboard",
		"year":          s.clock.Now().Year(),
	}
}
