package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeCreateUser    = "create_user"
	MailTypeResetPassword = "reset_password"
	MailTypeChangeEmail   = "change_email"
	MailTypeJobAssigned   = "job_assigned"
)

type CreateUserMailData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ChangeEmailMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type JobAssignedMailData struct {
	Name     string `json:"name"`
	JobID    string `json:"jobID"`
	JobTitle string `json:"jobTitle"`
	Creator  string `json:"creator"`
}
