package overview

import "slices"

// Collection is a displayed list of snapshots of one category.
type Collection interface {
	Items() []Snapshot
	Add(s Snapshot)
	Replace(i int, s Snapshot)
	Remove(i int)
}

// Merge inserts s in c while keeping at most one Empty placeholder, never
// next to a real snapshot:
//
//   - a real snapshot removes every placeholder, then replaces the snapshot
//     with the same key when it differs, or is added when there is none.
//   - a placeholder is only added to an empty collection.
func Merge(c Collection, s Snapshot) {
	if s.Kind == KindEmpty {
		if len(c.Items()) == 0 {
			c.Add(s)
		}
		return
	}

	items := c.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind == KindEmpty {
			c.Remove(i)
		}
	}

	items = c.Items()
	key := s.Key()
	switch i := slices.IndexFunc(items, func(x Snapshot) bool { return x.Key() == key }); {
	case i < 0:
		c.Add(s)
	case !items[i].Equal(s):
		c.Replace(i, s)
	}
}

// MergeAll merges the snapshots one after the other.
func MergeAll(c Collection, snaps ...Snapshot) {
	for _, s := range snaps {
		Merge(c, s)
	}
}

// List is a slice backed Collection.
type List struct {
	items []Snapshot
}

var _ Collection = (*List)(nil)

func (l *List) Items() []Snapshot         { return slices.Clone(l.items) }
func (l *List) Add(s Snapshot)            { l.items = append(l.items, s) }
func (l *List) Replace(i int, s Snapshot) { l.items[i] = s }
func (l *List) Remove(i int)              { l.items = slices.Delete(l.items, i, i+1) }
func (l *List) Len() int                  { return len(l.items) }

// Board gathers the collections of an overview, one per category.
type Board struct {
	Brokers        List
	BrokerAccounts List
	Banks          List
	BankAccounts   List
}
