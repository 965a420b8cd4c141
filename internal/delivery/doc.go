// Package delivery mails rendered invoices to their recipients over SMTP.
package delivery
