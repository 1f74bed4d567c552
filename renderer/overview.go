package renderer

import "github.com/etnz/binnaculum/overview"

// overviewData splits the snapshots per category. Empty placeholders are
// dropped, a category without snapshot is rendered as such.
type overviewData struct {
	Brokers        []overview.Broker
	BrokerAccounts []overview.BrokerAccount
	Banks          []overview.Bank
	BankAccounts   []overview.BankAccount
}

// RenderOverview renders the latest snapshots of brokers, banks and their accounts.
func RenderOverview(snaps []overview.Snapshot) string {
	var d overviewData
	for _, s := range snaps {
		switch s.Kind {
		case overview.KindBroker:
			d.Brokers = append(d.Brokers, *s.Broker)
		case overview.KindBrokerAccount:
			d.BrokerAccounts = append(d.BrokerAccounts, *s.BrokerAccount)
		case overview.KindBank:
			d.Banks = append(d.Banks, *s.Bank)
		case overview.KindBankAccount:
			d.BankAccounts = append(d.BankAccounts, *s.BankAccount)
		}
	}
	partials := map[string]string{
		"overview_brokers": "overview_brokers.md",
		"overview_banks":   "overview_banks.md",
	}
	return renderTemplate("overview", "overview.md", partials, d)
}

// BoardSnapshots returns every snapshot of the board, brokers first.
func BoardSnapshots(b *overview.Board) []overview.Snapshot {
	var res []overview.Snapshot
	for _, l := range []*overview.List{&b.Brokers, &b.BrokerAccounts, &b.Banks, &b.BankAccounts} {
		res = append(res, l.Items()...)
	}
	return res
}
