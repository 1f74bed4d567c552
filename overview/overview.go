// Package overview holds the summary snapshots shown for brokers and banks,
// and the policy merging freshly computed snapshots into a displayed collection.
package overview

import (
	"fmt"

	"github.com/etnz/binnaculum"
)

// Kind tells which payload a Snapshot carries.
type Kind int

const (
	// KindEmpty is the placeholder shown when a category has nothing to show yet.
	KindEmpty Kind = iota
	KindBank
	KindBankAccount
	KindBroker
	KindBrokerAccount
)

var kindNames = []string{"empty", "bank", "bank account", "broker", "broker account"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Bank is a bank snapshot with the bank it describes.
type Bank struct {
	Bank     binnaculum.Bank
	Snapshot binnaculum.BankSnapshot
}

type BankAccount struct {
	Account  binnaculum.BankAccount
	Snapshot binnaculum.BankAccountSnapshot
}

type Broker struct {
	Broker   binnaculum.Broker
	Snapshot binnaculum.BrokerFinancialSnapshot
}

type BrokerAccount struct {
	Account  binnaculum.BrokerAccount
	Snapshot binnaculum.BrokerFinancialSnapshot
}

// Snapshot is a tagged union: the field matching Kind is set, the others are nil.
// An Empty snapshot carries no payload.
type Snapshot struct {
	Kind          Kind
	Bank          *Bank
	BankAccount   *BankAccount
	Broker        *Broker
	BrokerAccount *BrokerAccount
}

func Empty() Snapshot { return Snapshot{Kind: KindEmpty} }

func OfBank(b binnaculum.Bank, s binnaculum.BankSnapshot) Snapshot {
	return Snapshot{Kind: KindBank, Bank: &Bank{Bank: b, Snapshot: s}}
}

func OfBankAccount(a binnaculum.BankAccount, s binnaculum.BankAccountSnapshot) Snapshot {
	return Snapshot{Kind: KindBankAccount, BankAccount: &BankAccount{Account: a, Snapshot: s}}
}

func OfBroker(b binnaculum.Broker, s binnaculum.BrokerFinancialSnapshot) Snapshot {
	return Snapshot{Kind: KindBroker, Broker: &Broker{Broker: b, Snapshot: s}}
}

func OfBrokerAccount(a binnaculum.BrokerAccount, s binnaculum.BrokerFinancialSnapshot) Snapshot {
	return Snapshot{Kind: KindBrokerAccount, BrokerAccount: &BrokerAccount{Account: a, Snapshot: s}}
}

// Key identifies the series of a snapshot within a collection.
type Key struct {
	Kind       Kind
	EntityID   int
	CurrencyID int
}

// Key returns the identity of s. Every Empty snapshot has the same key.
func (s Snapshot) Key() Key {
	var k binnaculum.SnapshotKey
	switch s.Kind {
	case KindBank:
		k = s.Bank.Snapshot.SnapshotKey()
	case KindBankAccount:
		k = s.BankAccount.Snapshot.SnapshotKey()
	case KindBroker:
		k = s.Broker.Snapshot.SnapshotKey()
	case KindBrokerAccount:
		k = s.BrokerAccount.Snapshot.SnapshotKey()
	}
	return Key{Kind: s.Kind, EntityID: k.EntityID, CurrencyID: k.CurrencyID}
}

// Date returns the day of the wrapped snapshot, zero for Empty.
func (s Snapshot) Date() binnaculum.Date {
	switch s.Kind {
	case KindBank:
		return s.Bank.Snapshot.Date
	case KindBankAccount:
		return s.BankAccount.Snapshot.Date
	case KindBroker:
		return s.Broker.Snapshot.Date
	case KindBrokerAccount:
		return s.BrokerAccount.Snapshot.Date
	}
	return binnaculum.Date{}
}

// Equal is a full structural comparison: same kind, same entity and same
// snapshot values.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindBank:
		return s.Bank.Bank == o.Bank.Bank && s.Bank.Snapshot.Equal(o.Bank.Snapshot)
	case KindBankAccount:
		return s.BankAccount.Account == o.BankAccount.Account && s.BankAccount.Snapshot.Equal(o.BankAccount.Snapshot)
	case KindBroker:
		return s.Broker.Broker == o.Broker.Broker && s.Broker.Snapshot.Equal(o.Broker.Snapshot)
	case KindBrokerAccount:
		return s.BrokerAccount.Account == o.BrokerAccount.Account && s.BrokerAccount.Snapshot.Equal(o.BrokerAccount.Snapshot)
	}
	return true
}
