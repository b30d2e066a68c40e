package notify

import (
	"fmt"
	"time"

	"github.com/nekoinbox/backend/internal/models"
	"gopkg.in/gomail.v2"
)

// Notifier delivers moderation alerts. Delivery is best effort
// everywhere it is used: a failed notification never fails or rolls
// back the operation that triggered it.
type Notifier interface {
	ReportFiled(msg *models.Message) error
}

// Mailer sends report notifications to the board admin over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

func NewMailer(host string, port int, username, password, from, to string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

// ReportFiled mails the admin that a message was reported, including
// enough of the message to triage without opening the board.
func (m *Mailer) ReportFiled(msg *models.Message) error {
	if m.host == "" || m.from == "" || m.to == "" {
		return fmt.Errorf("mailer not configured (SMTP_HOST, SENDER_EMAIL, RECIPIENT_EMAIL)")
	}

	body := fmt.Sprintf(`<h1>Message reported</h1>
<p>A message on the feedback board was reported:</p>
<ul>
  <li><strong>ID:</strong> %s</li>
  <li><strong>User:</strong> %s</li>
  <li><strong>Content:</strong> %s</li>
  <li><strong>Posted:</strong> %s</li>
  <li><strong>Reports so far:</strong> %d</li>
</ul>`,
		msg.ID, msg.UserName, msg.Content, msg.Timestamp.Format(time.RFC3339), msg.Reports)

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", m.to)
	mail.SetHeader("Subject", fmt.Sprintf("[report] message %s was reported", msg.ID))
	mail.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	return nil
}
