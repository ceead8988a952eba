package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/bank-cards/internal/config"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending operator notifications via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, a smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, a smtp.Auth) error {
			return e.Send(addr, a)
		},
	}
}

// CardsExpired reports the cards moved to EXPIRED by a sweep
func (s *Sender) CardsExpired(cards []models.Card, day time.Time) error {
	if len(cards) == 0 {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The expiration sweep for %s expired %d card(s):\n\n", day.Format(utils.DateLayout), len(cards))
	for _, c := range cards {
		fmt.Fprintf(&body, "  #%d %s owner %d, expired on %s, balance %s\n",
			c.ID, c.MaskedNumber, c.OwnerID, c.ExpiryDate.Format(utils.DateLayout), c.Balance.StringFixed(2))
	}
	body.WriteString("\nBank Cards Service")

	return s.deliver(fmt.Sprintf("Cards expired on %s", day.Format(utils.DateLayout)), body.String())
}

// CardBlocked reports a card that has just been blocked
func (s *Sender) CardBlocked(card models.Card) error {
	body := fmt.Sprintf(
		"Card #%d %s owned by user %d has been blocked.\n"+
			"Time: %s\n"+
			"Balance at block time: %s\n"+
			"\nBank Cards Service",
		card.ID, card.MaskedNumber, card.OwnerID, time.Now().UTC().Format("2006-01-02 15:04:05"), card.Balance.StringFixed(2),
	)
	return s.deliver(fmt.Sprintf("Card %s blocked", card.MaskedNumber), body)
}

func (s *Sender) deliver(subject, body string) error {
	if !s.cfg.EmailEnabled() {
		s.logger.Debugf("Email disabled, dropping notification: %s", subject)
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.NotifyEmail}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", s.cfg.NotifyEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.NotifyEmail, subject)
	return nil
}
