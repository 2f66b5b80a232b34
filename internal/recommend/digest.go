// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"slices"
)

// InputDigest returns a SHA-256 over everything the feature table is derived
// from: the historical window bounds, the historical transactions in partition
// order and the dimension rows of the items they reference. Two snapshots with
// the same digest must produce bit-identical features under the same config;
// rows outside the historical window do not change it.
func (s *Snapshot) InputDigest() string {
	h := sha256.New()
	buf := make([]byte, 8)
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf, uint64(v)) //nolint:gosec // bit pattern only
		h.Write(buf)
	}

	putInt(s.Windows.Historical.Start.UnixNano())
	putInt(s.Windows.Historical.End.UnixNano())

	hist := s.Historical
	items := make([]int64, 0, len(hist.ItemCounts))
	for id := range hist.ItemCounts {
		items = append(items, id)
	}
	slices.Sort(items)

	putInt(int64(len(hist.Customers)))
	for i, id := range hist.Customers {
		putInt(id)
		putInt(int64(len(hist.Txns[i])))
		for _, tx := range hist.Txns[i] {
			putInt(tx.ItemID)
			putInt(tx.Timestamp.UnixNano())
			putInt(tx.OrderID)
		}
	}

	putInt(int64(len(items)))
	for _, id := range items {
		putInt(id)
		it, ok := s.Items.Item(id)
		if !ok {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		writeString(h, it.Brand)
		writeString(h, it.AgeGroup)
		writeString(h, it.Category)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeString writes a length-prefixed string so adjacent fields cannot collide.
func writeString(h hash.Hash, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}
