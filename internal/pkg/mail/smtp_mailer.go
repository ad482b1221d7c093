package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/clubstack/clubstack/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP using the configured relay.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendPaymentLink emails a member the checkout URL for their selected plan.
func SendPaymentLink(to string, memberName string, clubName string, planName string, checkoutURL string) error {
	subject := fmt.Sprintf("Complete your %s membership payment", clubName)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Your membership for <strong>%s</strong> (plan: %s) is ready. "+
			"Use the link below to complete your payment:</p>"+
			"<p><a href=\"%s\">%s</a></p>"+
			"<p>The link takes you to a secure checkout page.</p>",
		memberName, clubName, planName, checkoutURL, checkoutURL,
	)
	return SendMail(to, subject, body)
}
