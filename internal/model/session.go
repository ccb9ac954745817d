package model

// Session keeps per-chat preferences between Telegram updates.
// When Sandbox is set, Components replaces the portfolio file for that chat.
type Session struct {
	SkipDownload bool        `json:"skip_download"`
	Sandbox      bool        `json:"sandbox,omitempty"`
	Components   []Component `json:"components,omitempty"`
}

func DefaultSession() Session {
	return Session{SkipDownload: true}
}
