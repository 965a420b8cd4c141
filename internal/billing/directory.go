package billing

import (
	"fmt"
	"sort"
	"strings"
)

// Directory is the immutable client directory together with the precomputed
// e-mail index used by the classifier.
type Directory struct {
	clients map[string]ClientRecord
	names   []string
	byEmail map[string]string
}

// NewDirectory indexes records by name and e-mail. Duplicate names, e-mails
// shared by two clients and non-positive rates are rejected here so that a bad
// directory never reaches classification.
func NewDirectory(records []ClientRecord) (*Directory, error) {
	d := &Directory{
		clients: make(map[string]ClientRecord, len(records)),
		byEmail: make(map[string]string),
	}

	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return nil, &ValidationError{Source: "clients", Field: "name", Reason: "must not be empty"}
		}
		if _, dup := d.clients[name]; dup {
			return nil, &ValidationError{Source: "clients", Field: "name", Value: name, Reason: "duplicate client name"}
		}
		if !rec.Rate.IsPositive() {
			return nil, &ValidationError{Source: "clients", Field: name + ".rate", Value: rec.Rate.String(), Reason: "must be positive"}
		}

		emails := make([]string, 0, len(rec.Emails))
		seen := make(map[string]bool, len(rec.Emails))
		for _, raw := range rec.Emails {
			email := normalizeEmail(raw)
			if email == "" || seen[email] {
				continue
			}
			if owner, taken := d.byEmail[email]; taken {
				return nil, &ValidationError{
					Source: "clients",
					Field:  name + ".emails",
					Value:  email,
					Reason: fmt.Sprintf("already belongs to %s", owner),
				}
			}
			seen[email] = true
			d.byEmail[email] = name
			emails = append(emails, email)
		}

		rec.Name = name
		rec.Emails = emails
		d.clients[name] = rec
		d.names = append(d.names, name)
	}

	sort.Strings(d.names)
	return d, nil
}

// Lookup returns the client owning email, ignoring case and surrounding space.
func (d *Directory) Lookup(email string) (ClientRecord, bool) {
	name, ok := d.byEmail[normalizeEmail(email)]
	if !ok {
		return ClientRecord{}, false
	}
	return d.clients[name], true
}

// Client returns the record with the given name.
func (d *Directory) Client(name string) (ClientRecord, bool) {
	rec, ok := d.clients[name]
	return rec, ok
}

// ClientFold looks a client up by name, ignoring case.
func (d *Directory) ClientFold(name string) (ClientRecord, bool) {
	if rec, ok := d.clients[name]; ok {
		return rec, true
	}
	for _, n := range d.names {
		if strings.EqualFold(n, name) {
			return d.clients[n], true
		}
	}
	return ClientRecord{}, false
}

// Names returns all client names in lexicographic order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Records returns all records ordered by name.
func (d *Directory) Records() []ClientRecord {
	out := make([]ClientRecord, 0, len(d.names))
	for _, n := range d.names {
		out = append(out, d.clients[n])
	}
	return out
}

// Len returns the number of clients.
func (d *Directory) Len() int {
	return len(d.names)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
