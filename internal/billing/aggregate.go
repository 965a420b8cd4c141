package billing

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricedSession is a session with its rate and unrounded cost.
type PricedSession struct {
	Session
	Rate  decimal.Decimal
	Hours decimal.Decimal
	Cost  decimal.Decimal
}

// ClientTotal is one client's share of a billing group, unrounded.
type ClientTotal struct {
	Client   string
	Sessions int
	Duration time.Duration
	Total    decimal.Decimal
}

// BillingGroup is the unit of one invoice: a private client or an agency.
type BillingGroup struct {
	Key         string
	Kind        ClientKind
	DisplayName string
	// Clients holds the names of the clients with sessions in the group, sorted.
	Clients  []string
	Sessions []PricedSession
	// ClientTotals has one entry per client in Clients order.
	ClientTotals []ClientTotal
	Duration     time.Duration
	// Total is the unrounded sum of session costs.
	Total decimal.Decimal
}

// DisplayTotal returns Total rounded once for display.
func (g BillingGroup) DisplayTotal() decimal.Decimal {
	return RoundForDisplay(g.Total)
}

// PaymentLink resolves the bank's payment link for this group's total.
func (g BillingGroup) PaymentLink(bank BankDetails) string {
	return ResolveAmountTemplate(bank.PaymentLink, g.Total)
}

// QRCodeLink resolves the bank's QR-code link for this group's total.
func (g BillingGroup) QRCodeLink(bank BankDetails) string {
	return ResolveAmountTemplate(bank.QRCodeLink, g.Total)
}

// FileName returns the output document name without extension,
// e.g. "alice-smith-invoice".
func (g BillingGroup) FileName() string {
	base := strings.ToLower(strings.Join(strings.Fields(g.Key), "-"))
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '-'
		}
		return r
	}, base)
	return base + "-invoice"
}

// Aggregate groups sessions into billing groups and prices them. Private
// clients get a group each, agency clients share the group of their agency.
// Sessions are ordered by start and groups by key, so the output only depends
// on its input.
func Aggregate(sessions []Session, dir *Directory) ([]BillingGroup, error) {
	byKey := make(map[string]*BillingGroup)
	totals := make(map[string]map[string]*ClientTotal)

	for _, s := range sessions {
		rec, ok := dir.Client(s.Client)
		if !ok {
			return nil, &CalculationError{Client: s.Client, Detail: "session refers to an unknown client"}
		}
		cost, err := SessionCost(rec.Rate, s.Duration())
		if err != nil {
			var ce *CalculationError
			if errors.As(err, &ce) {
				ce.Client = rec.Name
			}
			return nil, err
		}

		key := rec.GroupKey()
		g, ok := byKey[key]
		if !ok {
			g = &BillingGroup{
				Key:         key,
				Kind:        rec.Type.Kind,
				DisplayName: key,
				Total:       decimal.Zero,
			}
			byKey[key] = g
			totals[key] = make(map[string]*ClientTotal)
		}

		g.Sessions = append(g.Sessions, PricedSession{
			Session: s,
			Rate:    rec.Rate,
			Hours:   SessionHours(s.Duration()),
			Cost:    cost,
		})
		g.Duration += s.Duration()
		g.Total = g.Total.Add(cost)

		ct, ok := totals[key][rec.Name]
		if !ok {
			ct = &ClientTotal{Client: rec.Name, Total: decimal.Zero}
			totals[key][rec.Name] = ct
		}
		ct.Sessions++
		ct.Duration += s.Duration()
		ct.Total = ct.Total.Add(cost)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]BillingGroup, 0, len(keys))
	for _, k := range keys {
		g := byKey[k]
		sortSessions(g.Sessions)
		for name := range totals[k] {
			g.Clients = append(g.Clients, name)
		}
		sort.Strings(g.Clients)
		for _, name := range g.Clients {
			g.ClientTotals = append(g.ClientTotals, *totals[k][name])
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func sortSessions(sessions []PricedSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.EventID < b.EventID
	})
}
