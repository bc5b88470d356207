package mailer

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// languageConfig binds per-language template names, subjects and placeholder
// text. Unrecognised language values fall back to Turkish content.
type languageConfig struct {
	resultTemplate string
	resultSubject  string
	resetTemplate  string
	resetSubject   string
	notProvided    string
}

var languageConfigs = map[string]languageConfig{
	"EN": {
		resultTemplate: "result_en.html",
		resultSubject:  "🎄 Secret Santa Draw Result",
		resetTemplate:  "reset_en.html",
		resetSubject:   "Password Reset Request",
		notProvided:    "Not provided",
	},
	"TR": {
		resultTemplate: "result_tr.html",
		resultSubject:  "🎄 Yılbaşı Çekiliş Sonucu",
		resetTemplate:  "reset_tr.html",
		resetSubject:   "Şifre Sıfırlama Talebi",
		notProvided:    "Belirtilmemiş",
	},
}

func configFor(language string) languageConfig {
	if cfg, ok := languageConfigs[language]; ok {
		return cfg
	}
	return languageConfigs["TR"]
}

// ResultContext carries the fields rendered into a draw result email.
type ResultContext struct {
	ParticipantName string
	TargetName      string
	TargetEmail     string
	TargetPhone     string
	TargetAddress   string
}

// RenderResult produces the subject and HTML body of a draw result email in
// the requested language. Empty contact fields render as a localised
// "not provided" placeholder.
func RenderResult(language string, ctx ResultContext) (string, string, error) {
	cfg := configFor(language)
	if ctx.TargetPhone == "" {
		ctx.TargetPhone = cfg.notProvided
	}
	if ctx.TargetAddress == "" {
		ctx.TargetAddress = cfg.notProvided
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, cfg.resultTemplate, ctx); err != nil {
		return "", "", err
	}
	return cfg.resultSubject, buf.String(), nil
}

// RenderPasswordReset produces the subject and HTML body of a password reset
// email containing the one-time reset token.
func RenderPasswordReset(language, resetToken string) (string, string, error) {
	cfg := configFor(language)

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, cfg.resetTemplate, struct{ ResetToken string }{resetToken}); err != nil {
		return "", "", err
	}
	return cfg.resetSubject, buf.String(), nil
}
