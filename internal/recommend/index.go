// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"cmp"
	"slices"
	"time"
)

// ItemIndex is the read-only item dimension lookup shared by every stage of a run.
type ItemIndex struct {
	items         map[int64]Item
	categoryItems map[string][]int64
}

// NewItemIndex builds the lookup. Later duplicates of an item id overwrite earlier ones.
func NewItemIndex(items []Item) *ItemIndex {
	x := &ItemIndex{
		items:         make(map[int64]Item, len(items)),
		categoryItems: make(map[string][]int64),
	}
	for _, it := range items {
		x.items[it.ItemID] = it
	}
	for id, it := range x.items {
		if it.Category == "" {
			continue
		}
		x.categoryItems[it.Category] = append(x.categoryItems[it.Category], id)
	}
	for cat := range x.categoryItems {
		slices.Sort(x.categoryItems[cat])
	}
	return x
}

// Item returns the dimension row for id.
func (x *ItemIndex) Item(id int64) (Item, bool) {
	it, ok := x.items[id]
	return it, ok
}

// Len returns the number of distinct items.
func (x *ItemIndex) Len() int {
	return len(x.items)
}

// CategoryItems returns the item ids in a category in ascending order.
// The returned slice must not be modified.
func (x *ItemIndex) CategoryItems(category string) []int64 {
	return x.categoryItems[category]
}

// Missing returns a MissingDimensionError for transactions in p whose items
// have no dimension row, or nil when every item resolves.
func (x *ItemIndex) Missing(p *Partition) *MissingDimensionError {
	seen := make(map[int64]struct{})
	rows := 0
	for _, txns := range p.Txns {
		for i := range txns {
			if _, ok := x.items[txns[i].ItemID]; ok {
				continue
			}
			rows++
			seen[txns[i].ItemID] = struct{}{}
		}
	}
	if rows == 0 {
		return nil
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return &MissingDimensionError{ItemIDs: ids, Rows: rows}
}

// Partition is the subset of the log inside one window, grouped by customer.
// Customers are ascending and each customer's transactions are ordered by
// timestamp, then item id, so every consumer sees the same order.
type Partition struct {
	Window Window

	// Customers lists customer ids present in the window, ascending.
	Customers []int64

	// Txns is parallel to Customers.
	Txns [][]Transaction

	// ItemCounts is the global purchase count of each item inside the window.
	ItemCounts map[int64]int

	// Rows is the number of transactions in the window.
	Rows int

	pos map[int64]int
}

// NewPartition selects the transactions inside w. The input is not modified.
func NewPartition(txns []Transaction, w Window) *Partition {
	byCustomer := make(map[int64][]Transaction)
	counts := make(map[int64]int)
	rows := 0
	for i := range txns {
		if !w.Contains(txns[i].Timestamp) {
			continue
		}
		byCustomer[txns[i].CustomerID] = append(byCustomer[txns[i].CustomerID], txns[i])
		counts[txns[i].ItemID]++
		rows++
	}

	p := &Partition{
		Window:     w,
		Customers:  make([]int64, 0, len(byCustomer)),
		Txns:       make([][]Transaction, 0, len(byCustomer)),
		ItemCounts: counts,
		Rows:       rows,
		pos:        make(map[int64]int, len(byCustomer)),
	}
	for id := range byCustomer {
		p.Customers = append(p.Customers, id)
	}
	slices.Sort(p.Customers)
	for i, id := range p.Customers {
		list := byCustomer[id]
		slices.SortStableFunc(list, compareTransactions)
		p.Txns = append(p.Txns, list)
		p.pos[id] = i
	}
	return p
}

func compareTransactions(a, b Transaction) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ItemID, b.ItemID); c != 0 {
		return c
	}
	return cmp.Compare(a.OrderID, b.OrderID)
}

// Len returns the number of customers in the window.
func (p *Partition) Len() int {
	return len(p.Customers)
}

// Lookup returns the transactions of a customer inside the window.
func (p *Partition) Lookup(customerID int64) ([]Transaction, bool) {
	i, ok := p.pos[customerID]
	if !ok {
		return nil, false
	}
	return p.Txns[i], true
}

// Items returns the distinct items purchased by the customer at position i, ascending.
func (p *Partition) Items(i int) []int64 {
	out := make([]int64, 0, len(p.Txns[i]))
	for _, tx := range p.Txns[i] {
		out = append(out, tx.ItemID)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Snapshot bundles the read-only indexes of one run: the item dimension and
// the log partitioned by window. It is built once and shared by every stage.
type Snapshot struct {
	Dataset    *Dataset
	Windows    Windows
	Items      *ItemIndex
	Historical *Partition
	Recent     *Partition
	Holdout    *Partition
}

// NewSnapshot indexes ds for the given windows.
func NewSnapshot(ds *Dataset, w Windows) *Snapshot {
	return &Snapshot{
		Dataset:    ds,
		Windows:    w,
		Items:      NewItemIndex(ds.Items),
		Historical: NewPartition(ds.Transactions, w.Historical),
		Recent:     NewPartition(ds.Transactions, w.Recent),
		Holdout:    NewPartition(ds.Transactions, w.Holdout),
	}
}

// Span returns the earliest and latest timestamps of the log.
// ok is false when the log is empty.
func Span(txns []Transaction) (first, last time.Time, ok bool) {
	if len(txns) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = txns[0].Timestamp, txns[0].Timestamp
	for i := 1; i < len(txns); i++ {
		ts := txns[i].Timestamp
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	return first, last, true
}
