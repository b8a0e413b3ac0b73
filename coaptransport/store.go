// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coaptransport

import (
	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coaptransport/params"
)

// MessageIdStore is the message-id allocator: a monotonically
// advancing 16-bit counter plus the set of currently-claimed ids.
type MessageIdStore struct {
	claimed map[coapmsg.MessageID]bool
	next    *coapmsg.MessageID
}

// NewMessageIdStore seeds the allocator at the given starting value.
func NewMessageIdStore(start coapmsg.MessageID) *MessageIdStore {
	n := start
	return &MessageIdStore{claimed: make(map[coapmsg.MessageID]bool), next: &n}
}

// AtCapacity reports whether the allocator is exhausted: the id it
// would hand out next was already claimed when the counter advanced
// onto it. With ids claimed in sequence this means the whole 16-bit
// space is claimed; an id released earlier elsewhere in the space is
// not searched for.
func (s *MessageIdStore) AtCapacity() bool {
	return s.next == nil
}

// Claim returns the next available message-id and advances the
// allocator, or false if the id space is exhausted (effectively never
// under normal load).
func (s *MessageIdStore) Claim() (coapmsg.MessageID, bool) {
	if s.next == nil {
		return 0, false
	}
	id := *s.next
	s.claimed[id] = true

	advanced := id.Next()
	if s.claimed[advanced] {
		s.next = nil
	} else {
		next := advanced
		s.next = &next
	}
	return id, true
}

// Release frees a previously-claimed message-id, restoring the
// allocator to non-exhausted state if it had been exhausted.
func (s *MessageIdStore) Release(id coapmsg.MessageID) {
	if !s.claimed[id] {
		return
	}
	delete(s.claimed, id)
	if s.next == nil {
		n := id
		s.next = &n
	}
}

// IsClaimed reports whether id is currently in use.
func (s *MessageIdStore) IsClaimed(id coapmsg.MessageID) bool {
	return s.claimed[id]
}

// TransactionStore is the indexed collection of in-flight
// Transactions.
type TransactionStore struct {
	nstart       int
	transactions []Transaction
}

// NewTransactionStore builds a store admitting up to nstart
// simultaneous blocking (unacknowledged Confirmable) exchanges.
func NewTransactionStore(nstart int) *TransactionStore {
	return &TransactionStore{nstart: nstart}
}

// Count returns the number of live transactions.
func (s *TransactionStore) Count() int { return len(s.transactions) }

// Add registers a new transaction.
func (s *TransactionStore) Add(t Transaction) { s.transactions = append(s.transactions, t) }

// FindByMessageID returns the transaction with the given message-id, if any.
func (s *TransactionStore) FindByMessageID(mid coapmsg.MessageID) Transaction {
	for _, t := range s.transactions {
		if t.MessageID() == mid {
			return t
		}
	}
	return nil
}

// FindByToken returns the transaction with the given token, if any.
func (s *TransactionStore) FindByToken(tok coapmsg.Token) Transaction {
	for _, t := range s.transactions {
		if t.Token().Equal(tok) {
			return t
		}
	}
	return nil
}

// ExistsByToken reports whether a live transaction already uses tok.
func (s *TransactionStore) ExistsByToken(tok coapmsg.Token) bool {
	return s.FindByToken(tok) != nil
}

// RemoveByMessageID removes and returns the transaction with the
// given message-id, if any.
func (s *TransactionStore) RemoveByMessageID(mid coapmsg.MessageID) Transaction {
	for i, t := range s.transactions {
		if t.MessageID() == mid {
			return s.swapRemove(i)
		}
	}
	return nil
}

// RemoveByToken removes and returns the transaction with the given
// token, if any.
func (s *TransactionStore) RemoveByToken(tok coapmsg.Token) Transaction {
	for i, t := range s.transactions {
		if t.Token().Equal(tok) {
			return s.swapRemove(i)
		}
	}
	return nil
}

func (s *TransactionStore) swapRemove(i int) Transaction {
	t := s.transactions[i]
	last := len(s.transactions) - 1
	s.transactions[i] = s.transactions[last]
	s.transactions = s.transactions[:last]
	return t
}

// CurrentNSTART counts transactions that no longer block admission:
// non-confirmable, or confirmable-and-acknowledged.
func (s *TransactionStore) CurrentNSTART() int {
	n := 0
	for _, t := range s.transactions {
		if t.IsNonConfirmable() || t.IsAcknowledged() {
			n++
		}
	}
	return n
}

// AtMaxInflightCapacity reports whether a new Confirmable transaction
// would exceed NSTART: the transactions still blocking admission (all
// live ones minus those counted by CurrentNSTART) already fill nstart.
func (s *TransactionStore) AtMaxInflightCapacity() bool {
	return s.Count()-s.CurrentNSTART() >= s.nstart
}

// defaultNSTART mirrors params.NSTART for stores constructed without
// an explicit nstart.
func defaultNSTART() int { return params.NSTART }
