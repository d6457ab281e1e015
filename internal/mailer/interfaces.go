package mailer

type Service interface {
	SendOtpEmail(toEmail, toName, code string) error
}
