package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/avaliaedu/portal/config"
)

// EmailService sends transactional email via SMTP. When SMTP is not
// configured the code being delivered is logged instead, which keeps local
// development working without a mail account.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailService creates a new email service instance
func NewEmailService(env *config.EnviornmentVariable) *EmailService {
	host := env.SMTP_HOST
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := env.SMTP_PORT
	if port == "" {
		port = "587"
	}
	from := env.SMTP_FROM
	if from == "" {
		from = "nao-responda@avaliaedu.com.br"
	}

	return &EmailService{
		host:     host,
		port:     port,
		username: env.SMTP_USER,
		password: env.SMTP_PASSWORD,
		from:     from,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendUnlockCodeEmail delivers the verification code for an approved unlock
// request. The code expires one hour after approval.
func (e *EmailService) SendUnlockCodeEmail(toEmail, userName, code string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Unlock code for %s: %s", toEmail, code)
		return nil
	}

	subject := "Código de desbloqueio - AvaliaEdu"
	body := e.buildCodeEmailBody(userName,
		"Seu pedido de desbloqueio foi aprovado. Use o código abaixo para reativar sua conta:",
		code,
		"O código expira em 1 hora.")

	return e.sendEmail(toEmail, subject, body)
}

// SendPasswordResetEmail delivers a password reset code. The code expires
// five minutes after issue.
func (e *EmailService) SendPasswordResetEmail(toEmail, userName, code string) error {
	if !e.IsConfigured() {
		log.Printf("SMTP not configured. Reset code for %s: %s", toEmail, code)
		return nil
	}

	subject := "Redefinição de senha - AvaliaEdu"
	body := e.buildCodeEmailBody(userName,
		"Recebemos um pedido para redefinir a senha da sua conta. Use o código abaixo:",
		code,
		"O código expira em 5 minutos. Se você não pediu a redefinição, ignore este email.")

	return e.sendEmail(toEmail, subject, body)
}

func (e *EmailService) buildCodeEmailBody(userName, intro, code, warning string) string {
	if userName == "" {
		userName = "Estudante"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AvaliaEdu</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .code {
            font-size: 32px;
            font-weight: 700;
            letter-spacing: 6px;
            text-align: center;
            background-color: #f5f5f5;
            border-radius: 6px;
            padding: 16px;
            margin: 24px 0;
        }
        .warning {
            background-color: #fff3cd;
            border: 1px solid #ffc107;
            border-radius: 4px;
            padding: 12px;
            font-size: 13px;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <h2>Olá, %s</h2>
    <p>%s</p>
    <div class="code">%s</div>
    <div class="warning">%s</div>
    <div class="footer">
        <p><strong>AvaliaEdu</strong> — avaliações de instituições de ensino</p>
    </div>
</body>
</html>`, userName, intro, code, warning)
}

// sendEmail sends an email using SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := []string{
		fmt.Sprintf("From: AvaliaEdu <%s>", e.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	var message strings.Builder
	message.WriteString(strings.Join(headers, "\r\n"))
	message.WriteString("\r\n\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%s", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	log.Printf("Email sent to %s: %s", to, subject)
	return nil
}
