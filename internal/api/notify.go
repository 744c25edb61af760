package api

import "github.com/rs/zerolog/log"

// Notifier receives the user-visible side effects of response
// classification: transient error toasts and the re-authentication prompt
// shown when the session expires. The CLI supplies a terminal
// implementation; tests supply stubs.
type Notifier interface {
	// Toast surfaces a transient error message.
	Toast(msg string)
	// Warn surfaces a warning, e.g. account-not-activated.
	Warn(msg string)
	// ConfirmReauth asks the user whether to go to the login page after
	// their session expired. Returning false suppresses the redirect; the
	// session is cleared either way.
	ConfirmReauth() bool
}

// LogNotifier is the fallback Notifier: everything goes to the log and the
// re-auth prompt is auto-accepted. Used when no interactive surface exists.
type LogNotifier struct{}

func (LogNotifier) Toast(msg string) {
	log.Error().Msg(msg)
}

func (LogNotifier) Warn(msg string) {
	log.Warn().Msg(msg)
}

func (LogNotifier) ConfirmReauth() bool {
	log.Warn().Msg("session expired, please log in again")
	return true
}
