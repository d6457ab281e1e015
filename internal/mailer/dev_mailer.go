package mailer

import (
	"github.com/unimart/unimart-server/pkg/logger"
)

// DevMailer logs OTP mails instead of sending them. Registration must
// never echo the code in its HTTP response, so in dev mode this log
// line is how you find it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendOtpEmail(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] Verification code",
		"to", toEmail,
		"name", toName,
		"code", code,
	)
	return nil
}
