// Package config loads the configuration of a billing run.
//
// Three record files describe the business: the client directory, the bank
// details printed on invoices and the invoicing party's contact details. They
// are YAML (or JSON) documents decoded with yaml.v3, checked with
// go-playground/validator and normalized: sort codes, account numbers and
// phone numbers lose their separators, e-mails are lower-cased. Every problem
// is reported as a *billing.ValidationError naming the field and the value.
//
// Run settings (data directory, renderer, time zone, SMTP, title rules) are
// read through viper from flags, SESSIONBILL_* environment variables and an
// optional sessionbill.yaml.
package config
