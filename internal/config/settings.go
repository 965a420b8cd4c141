package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/sessionbill/internal/billing"
)

// EnvPrefix prefixes every environment variable read into Settings.
const EnvPrefix = "SESSIONBILL"

// Settings are the run options of the command line tool. They come from
// flags, SESSIONBILL_* variables (optionally from a .env file) and an
// optional sessionbill.yaml, in that order of precedence.
type Settings struct {
	DataDir         string `mapstructure:"data_dir" validate:"required"`
	ClientsFile     string `mapstructure:"clients_file" validate:"required"`
	BankFile        string `mapstructure:"bank_file" validate:"required"`
	ContactFile     string `mapstructure:"contact_file" validate:"required"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	OutputDir       string `mapstructure:"output_dir" validate:"required"`
	CalendarID      string `mapstructure:"calendar_id" validate:"required"`
	Timezone        string `mapstructure:"timezone" validate:"required"`
	Currency        string `mapstructure:"currency"`
	Renderer        string `mapstructure:"renderer" validate:"oneof=html chrome pdf"`
	OnAmbiguous     string `mapstructure:"on_ambiguous" validate:"oneof=skip abort"`
	// ICSFile replaces Google Calendar with a local iCalendar export.
	ICSFile string `mapstructure:"ics_file"`
	// OwnerEmail is the calendar owner's address, used to recognise the
	// owner among the attendees of an iCalendar export.
	OwnerEmail string `mapstructure:"owner_email" validate:"omitempty,email"`
	ChromePath string `mapstructure:"chrome_path"`
	FontPath   string `mapstructure:"font_path"`

	TitleRules billing.TitleRules `mapstructure:"title_rules"`
	SMTP       SMTPSettings       `mapstructure:"smtp"`
	// AgencyContacts maps an agency name to the address its invoices go to.
	// Keys are compared case-insensitively.
	AgencyContacts map[string]string `mapstructure:"agency_contacts"`
	Log            LogSettings       `mapstructure:"log"`
}

// SMTPSettings configure invoice delivery.
type SMTPSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether a mail server is configured.
func (s SMTPSettings) Enabled() bool {
	return s.Host != ""
}

// LogSettings configure the slog handler.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

func setDefaults(v *viper.Viper) {
	rules := billing.DefaultTitleRules()

	v.SetDefault("data_dir", "data")
	v.SetDefault("clients_file", "clients.yaml")
	v.SetDefault("bank_file", "bank_details.yaml")
	v.SetDefault("contact_file", "contact_details.yaml")
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("output_dir", "invoices")
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("timezone", "Europe/London")
	v.SetDefault("currency", "£")
	v.SetDefault("renderer", "chrome")
	v.SetDefault("on_ambiguous", "skip")
	v.SetDefault("ics_file", "")
	v.SetDefault("owner_email", "")
	v.SetDefault("chrome_path", "")
	v.SetDefault("font_path", "")
	v.SetDefault("title_rules.skip_keywords", rules.SkipKeywords)
	v.SetDefault("title_rules.name_markers", rules.NameMarkers)
	v.SetDefault("title_rules.name_prefixes", rules.NamePrefixes)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("agency_contacts", map[string]string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// NewViper returns a viper instance with defaults, environment binding and,
// if found, the config file. An explicit configFile must exist; otherwise
// sessionbill.yaml is looked up in the working directory and the user config
// directory.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return v, nil
	}

	v.SetConfigName("sessionbill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "sessionbill"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// LoadSettings unmarshals and validates the settings held by v.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if problems := checkStruct("settings", "", s); len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return nil, &billing.ValidationError{Source: "settings", Field: "timezone", Value: s.Timezone, Reason: "unknown time zone"}
	}
	return &s, nil
}

// Path resolves a configured file name against the data directory.
func (s *Settings) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.DataDir, name)
}

// Location returns the time zone invoices are rendered in.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ErrorPolicy returns the parsed on_ambiguous policy.
func (s *Settings) ErrorPolicy() billing.ErrorPolicy {
	p, _ := billing.ParseErrorPolicy(s.OnAmbiguous)
	return p
}

// AgencyContact returns the invoice address configured for an agency.
func (s *Settings) AgencyContact(agency string) (string, bool) {
	for k, addr := range s.AgencyContacts {
		if strings.EqualFold(k, agency) && addr != "" {
			return addr, true
		}
	}
	return "", false
}

// LoadRecords loads the three configuration records named by s.
func (s *Settings) LoadRecords() (*Records, error) {
	return LoadRecords(s.Path(s.ClientsFile), s.Path(s.BankFile), s.Path(s.ContactFile))
}
