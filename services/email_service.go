// services/email_service.go
package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/nexvia/nexvia_portal_backend/models"
	"github.com/nexvia/nexvia_portal_backend/utils"
)

// EmailService sends transactional receipt emails over SMTP
type EmailService struct {
	host      string
	port      int
	user      string
	password  string
	fromEmail string
}

// NewEmailService reads SMTP configuration from environment variables
func NewEmailService() *EmailService {
	port := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	svc := &EmailService{
		host:      os.Getenv("SMTP_HOST"),
		port:      port,
		user:      os.Getenv("SMTP_USER"),
		password:  os.Getenv("SMTP_PASS"),
		fromEmail: os.Getenv("SMTP_FROM"),
	}

	if svc.host == "" || svc.user == "" {
		log.Println("Warning: SMTP not fully configured, receipt emails will be skipped")
	}

	return svc
}

// Enabled reports whether SMTP is configured
func (s *EmailService) Enabled() bool {
	return s.host != "" && s.user != ""
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.fromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// SendActivationReceipt emails the customer a summary of a submitted
// activation. Best effort: callers log failures and continue.
func (s *EmailService) SendActivationReceipt(to string, activation models.ActivationRecord) error {
	if !s.Enabled() {
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Activation Receipt</h2>
			<p>Receipt number: <b>%s</b></p>
			<p>Carrier: %s</p>
			<p>SIM number: %s</p>
			<p>Amount paid: $%s</p>
			<p>Status: %s</p>
			<p>Thank you for your purchase.</p>
		</body>
		</html>
	`, activation.ReceiptNumber, activation.Carrier, activation.SimNumber,
		utils.FormatAmount(activation.CustomerPrice), activation.Status)

	return s.send(to, "Your activation receipt "+activation.ReceiptNumber, body)
}

// SendRechargeReceipt emails the customer a summary of a completed
// recharge, including the PIN for PIN-delivered products
func (s *EmailService) SendRechargeReceipt(to string, recharge models.RechargeRecord) error {
	if !s.Enabled() {
		return nil
	}

	pinBlock := ""
	if recharge.PIN != "" {
		pinBlock = fmt.Sprintf(`<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">%s</h3>`, recharge.PIN)
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Recharge Receipt</h2>
			<p>Receipt number: <b>%s</b></p>
			<p>Phone number: %s</p>
			<p>Amount paid: $%s</p>
			%s
			<p>Thank you for your purchase.</p>
		</body>
		</html>
	`, recharge.ReceiptNumber, recharge.PhoneNumber,
		utils.FormatAmount(recharge.CustomerPrice), pinBlock)

	return s.send(to, "Your recharge receipt "+recharge.ReceiptNumber, body)
}
