package models

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// SMS providers the notification settings accept.
var SMSProviders = []string{"twilio", "africasTalking"}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Settings is the single platform-wide configuration record.
type Settings struct {
	General       GeneralSettings      `json:"general"`
	Security      SecuritySettings     `json:"security"`
	Features      map[string]bool      `json:"features,omitempty"`
	Notifications NotificationSettings `json:"notifications"`
	Monetization  MonetizationSettings `json:"monetization"`
}

type GeneralSettings struct {
	PlatformName    string `json:"platform_name"`
	PrimaryColor    string `json:"primary_color"`
	Language        string `json:"language"`
	MaintenanceMode bool   `json:"maintenance_mode"`
}

type SecuritySettings struct {
	JWTExpirationMinutes int      `json:"jwt_expiration_minutes"`
	Require2FA           bool     `json:"require_2fa"`
	AllowedCORSOrigins   []string `json:"allowed_cors_origins,omitempty"`
	RateLimitRequests    int      `json:"rate_limit_requests"`
}

type NotificationSettings struct {
	SenderEmail string `json:"sender_email"`
	SMTPHost    string `json:"smtp_host"`
	SMSProvider string `json:"sms_provider"`
	// Channels enables delivery channels (email, sms, webhook) by name.
	Channels map[string]bool `json:"channels,omitempty"`
}

type MonetizationSettings struct {
	PlatformCommission float64 `json:"platform_commission"` // percent
	EscrowDays         int     `json:"escrow_days"`
}

// DefaultSettings is the configuration of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		General: GeneralSettings{
			PlatformName: "AgroLogistic",
			PrimaryColor: "#10B981",
			Language:     "fr",
		},
		Security: SecuritySettings{
			JWTExpirationMinutes: 60,
			Require2FA:           true,
			AllowedCORSOrigins:   []string{"https://app.agrologistic.local"},
			RateLimitRequests:    100,
		},
		Features: map[string]bool{
			"marketplace":  true,
			"mobile_money": true,
			"ai_insights":  false,
			"strict_kyc":   false,
		},
		Notifications: NotificationSettings{
			SenderEmail: "noreply@agrologistic.local",
			SMTPHost:    "smtp.agrologistic.local",
			SMSProvider: "twilio",
			Channels:    map[string]bool{"email": true, "sms": true, "webhook": false},
		},
		Monetization: MonetizationSettings{
			PlatformCommission: 5,
			EscrowDays:         7,
		},
	}
}

// Validate checks every section and reports all failing fields, joined.
func (s Settings) Validate() error {
	var errs []error

	g := s.General
	if len([]rune(strings.TrimSpace(g.PlatformName))) < 2 {
		errs = append(errs, fieldErr("general.platform_name", "at least 2 characters"))
	}
	if !hexColor.MatchString(g.PrimaryColor) {
		errs = append(errs, fieldErr("general.primary_color", "expected #RRGGBB"))
	}
	if g.Language != "fr" && g.Language != "en" {
		errs = append(errs, fieldErr("general.language", "expected fr or en"))
	}

	sec := s.Security
	if sec.JWTExpirationMinutes < 5 || sec.JWTExpirationMinutes > 24*60 {
		errs = append(errs, fieldErr("security.jwt_expiration", "between 5 and 1440 minutes"))
	}
	if sec.RateLimitRequests < 1 {
		errs = append(errs, fieldErr("security.rate_limit", "at least 1 request"))
	}
	for _, origin := range sec.AllowedCORSOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fieldErr("security.cors", fmt.Sprintf("invalid origin %q", origin)))
		}
	}

	n := s.Notifications
	if _, err := mail.ParseAddress(n.SenderEmail); err != nil {
		errs = append(errs, fieldErr("notifications.sender_email", "invalid address"))
	}
	if !contains(SMSProviders, n.SMSProvider) {
		errs = append(errs, fieldErr("notifications.sms_provider", fmt.Sprintf("unknown provider %q", n.SMSProvider)))
	}

	m := s.Monetization
	if m.PlatformCommission < 0 || m.PlatformCommission > 100 {
		errs = append(errs, fieldErr("monetization.commission", "between 0 and 100"))
	}
	if m.EscrowDays < 0 || m.EscrowDays > 90 {
		errs = append(errs, fieldErr("monetization.escrow_days", "between 0 and 90"))
	}

	return errors.Join(errs...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// SettingsFields are the settable settings paths. Feature flags and
// notification channels are addressed as features.<name> and
// channels.<name>, see SetSettingsField.
var SettingsFields = Fields[Settings]{
	"general.platform_name": func(s *Settings, v string) error { s.General.PlatformName = v; return nil },
	"general.primary_color": func(s *Settings, v string) error { s.General.PrimaryColor = v; return nil },
	"general.language":      func(s *Settings, v string) error { s.General.Language = strings.ToLower(v); return nil },
	"general.maintenance": func(s *Settings, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		s.General.MaintenanceMode = b
		return nil
	},
	"security.jwt_expiration": func(s *Settings, v string) error {
		n, err := parseInt(v)
		if err != nil {
			return err
		}
		s.Security.JWTExpirationMinutes = n
		return nil
	},
	"security.require_2fa": func(s *Settings, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		s.Security.Require2FA = b
		return nil
	},
	"security.cors": func(s *Settings, v string) error { s.Security.AllowedCORSOrigins = parseList(v); return nil },
	"security.rate_limit": func(s *Settings, v string) error {
		n, err := parseInt(v)
		if err != nil {
			return err
		}
		s.Security.RateLimitRequests = n
		return nil
	},
	"notifications.sender_email": func(s *Settings, v string) error { s.Notifications.SenderEmail = v; return nil },
	"notifications.smtp_host":    func(s *Settings, v string) error { s.Notifications.SMTPHost = v; return nil },
	"notifications.sms_provider": func(s *Settings, v string) error { s.Notifications.SMSProvider = v; return nil },
	"monetization.commission": func(s *Settings, v string) error {
		f, err := parseFloat(v)
		if err != nil {
			return err
		}
		s.Monetization.PlatformCommission = f
		return nil
	},
	"monetization.escrow_days": func(s *Settings, v string) error {
		n, err := parseInt(v)
		if err != nil {
			return err
		}
		s.Monetization.EscrowDays = n
		return nil
	},
}

// SetSettingsField assigns value to path, including the dynamic
// features.<name> and channels.<name> toggles.
func SetSettingsField(s *Settings, path, value string) error {
	lower := strings.ToLower(path)
	for prefix, target := range map[string]*map[string]bool{
		"features.": &s.Features,
		"channels.": &s.Notifications.Channels,
	} {
		name, ok := strings.CutPrefix(lower, prefix)
		if !ok {
			continue
		}
		if name == "" {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if *target == nil {
			*target = make(map[string]bool)
		}
		(*target)[name] = b
		return nil
	}
	return SettingsFields.Set(s, path, value)
}
