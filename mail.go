package bookauth

import (
	"fmt"

	"github.com/google/uuid"
)

// Notification templates. The raw secret travels only in the message body
// and params, never in any engine response.

func verificationMail(account Account, token string) Message {
	return Message{
		ID:      uuid.NewString(),
		To:      account.Email,
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"Hi %s,\n\nConfirm your email address with this token: %s\n\nThe token expires in 24 hours.",
			account.FirstName, token,
		),
		Params: map[string]string{
			"first_name": account.FirstName,
			"token":      token,
		},
	}
}

func mfaCodeMail(account Account, code string) Message {
	return Message{
		ID:      uuid.NewString(),
		To:      account.Email,
		Subject: "Your verification code",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is %s. It expires in 10 minutes.\n\nIf you did not request it, change your password.",
			account.FirstName, code,
		),
		Params: map[string]string{
			"first_name": account.FirstName,
			"code":       code,
		},
	}
}

func passwordResetMail(account Account, token string) Message {
	return Message{
		ID:      uuid.NewString(),
		To:      account.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse this token to reset your password: %s\n\nThe token expires in 1 hour. If you did not request a reset, ignore this message.",
			account.FirstName, token,
		),
		Params: map[string]string{
			"first_name": account.FirstName,
			"token":      token,
		},
	}
}
