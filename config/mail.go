package config

// MailConfig contains SMTP configuration for alert notification delivery.
type MailConfig struct {
	Host string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port int    `env:"SMTP_PORT" envDefault:"587"`
	User string `env:"SMTP_USER" envDefault:""`
	Pass string `env:"SMTP_PASS" envDefault:""`

	// From is the sender address on alert emails. Defaults to User when empty.
	From string `env:"ALERT_EMAIL_FROM" envDefault:""`
}

// EffectiveFrom returns the sender address, falling back to the SMTP user.
func (m *MailConfig) EffectiveFrom() string {
	if m.From != "" {
		return m.From
	}
	return m.User
}
