package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"ai-helpdesk-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

// EscalationMail is the content of a case handed to the help-desk mailbox.
type EscalationMail struct {
	To           string
	EscalationId string
	Severity     string
	Summary      string
	Question     string
	Response     string
	SourceDocIds []string
}

type IEmailService interface {
	SendEscalation(mail EscalationMail) error
}

// Sender is the part of gomail.Dialer the service needs.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	senderName  string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderName string, log logger.ILogger) IEmailService {
	return NewEmailServiceWithSender(gomail.NewDialer(host, port, username, password), username, senderName, log)
}

func NewEmailServiceWithSender(sender Sender, senderEmail, senderName string, log logger.ILogger) IEmailService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &emailService{
		sender:      sender,
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      log,
	}
}

var escalationTemplate = template.Must(template.New("escalation").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
	<h2>Caso escalado desde el asistente de soporte</h2>
	<p><strong>Referencia:</strong> {{.EscalationId}}{{if .Severity}} &middot; <strong>Severidad:</strong> {{.Severity}}{{end}}</p>
	{{if .Summary}}<p><strong>Resumen:</strong> {{.Summary}}</p>{{end}}
	<h3>Pregunta del empleado</h3>
	<blockquote>{{.Question}}</blockquote>
	<h3>Respuesta del asistente</h3>
	<blockquote>{{.Response}}</blockquote>
	{{if .Docs}}<p><strong>Documentos citados:</strong> {{.Docs}}</p>{{end}}
</div>
`))

// Subject builds the mail subject; severity first so mailbox rules can route on it.
func Subject(mail EscalationMail) string {
	severity := mail.Severity
	if severity == "" {
		severity = "P3"
	}
	return fmt.Sprintf("[%s] Escalación de soporte TI %s", severity, mail.EscalationId)
}

func renderEscalation(mail EscalationMail) (string, error) {
	data := struct {
		EscalationMail
		Docs string
	}{EscalationMail: mail, Docs: strings.Join(mail.SourceDocIds, ", ")}

	var buf bytes.Buffer
	if err := escalationTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *emailService) SendEscalation(mail EscalationMail) error {
	if strings.TrimSpace(mail.To) == "" {
		return fmt.Errorf("escalation mail %s: no recipient configured", mail.EscalationId)
	}

	body, err := renderEscalation(mail)
	if err != nil {
		return fmt.Errorf("render escalation mail: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", Subject(mail))
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("Mailer", "Failed to send escalation", map[string]interface{}{
			"escalation_id": mail.EscalationId,
			"to":            mail.To,
			"error":         err,
		})
		return err
	}

	s.logger.Info("Mailer", "Escalation sent", map[string]interface{}{
		"escalation_id": mail.EscalationId,
		"to":            mail.To,
	})
	return nil
}
