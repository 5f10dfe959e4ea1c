// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	events    map[timeclock.EventID]timeclock.Event
	rates     map[timeclock.UserID][]timeclock.PayRate
	users     map[timeclock.UserID]timeclock.User
	byEmail   map[string]timeclock.UserID
	vacations map[timeclock.VacationID]timeclock.VacationRequest
	changes   map[timeclock.UserID][]timeclock.ChangeEntry
}

// Compile-time check that Memory implements the full store surface.
var _ timeclock.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		events:    make(map[timeclock.EventID]timeclock.Event),
		rates:     make(map[timeclock.UserID][]timeclock.PayRate),
		users:     make(map[timeclock.UserID]timeclock.User),
		byEmail:   make(map[string]timeclock.UserID),
		vacations: make(map[timeclock.VacationID]timeclock.VacationRequest),
		changes:   make(map[timeclock.UserID][]timeclock.ChangeEntry),
	}
}

// Reset wipes all data. Used by demo scenario loaders.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[timeclock.EventID]timeclock.Event)
	m.rates = make(map[timeclock.UserID][]timeclock.PayRate)
	m.users = make(map[timeclock.UserID]timeclock.User)
	m.byEmail = make(map[string]timeclock.UserID)
	m.vacations = make(map[timeclock.VacationID]timeclock.VacationRequest)
	m.changes = make(map[timeclock.UserID][]timeclock.ChangeEntry)
	return nil
}

// =============================================================================
// EVENT STORE
// =============================================================================

func (m *Memory) SaveEvent(_ context.Context, e timeclock.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
	return nil
}

func (m *Memory) EventByID(_ context.Context, id timeclock.EventID) (*timeclock.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, timeclock.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) FindEvents(_ context.Context, q timeclock.EventQuery) ([]timeclock.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var allowed map[timeclock.UserID]bool
	if q.UserIDs != nil {
		allowed = make(map[timeclock.UserID]bool, len(q.UserIDs))
		for _, id := range q.UserIDs {
			allowed[id] = true
		}
	}

	result := []timeclock.Event{}
	for _, e := range m.events {
		if allowed != nil && !allowed[e.UserID] {
			continue
		}
		if q.From != nil && e.Time.Before(*q.From) {
			continue
		}
		if q.To != nil && !e.Time.Before(*q.To) {
			continue
		}
		if q.ApprovedOnly && !e.CountsTowardTimeline() {
			continue
		}
		if q.PendingOnly && !e.Pending {
			continue
		}
		if q.Timepunches && !e.TimepunchRequest {
			continue
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if q.Descending {
			return result[i].Time.After(result[j].Time)
		}
		return result[i].Time.Before(result[j].Time)
	})
	return result, nil
}

func (m *Memory) LastEvent(_ context.Context, userID timeclock.UserID) (*timeclock.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *timeclock.Event
	for _, e := range m.events {
		if e.UserID != userID {
			continue
		}
		e := e
		if last == nil || e.Time.After(last.Time) {
			last = &e
		}
	}
	return last, nil
}

func (m *Memory) UpdateApproval(_ context.Context, id timeclock.EventID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return timeclock.ErrNotFound
	}
	e.Approved = approved
	e.Pending = false
	m.events[id] = e
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, id timeclock.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return timeclock.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// =============================================================================
// PAY RATE STORE
// =============================================================================

func (m *Memory) SavePayRate(_ context.Context, r timeclock.PayRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rates := m.rates[r.UserID]
	// Keep rates ordered by Start ascending.
	i := sort.Search(len(rates), func(i int) bool {
		return rates[i].Start.After(r.Start)
	})
	rates = append(rates, timeclock.PayRate{})
	copy(rates[i+1:], rates[i:])
	rates[i] = r
	m.rates[r.UserID] = rates
	return nil
}

func (m *Memory) PayRatesByUser(_ context.Context, userID timeclock.UserID) ([]timeclock.PayRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]timeclock.PayRate, len(m.rates[userID]))
	copy(result, m.rates[userID])
	return result, nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u timeclock.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, u timeclock.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.users[u.ID]
	if !ok {
		return timeclock.ErrNotFound
	}
	if old.Email != u.Email {
		delete(m.byEmail, old.Email)
		m.byEmail[u.Email] = u.ID
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) UserByID(_ context.Context, id timeclock.UserID) (*timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, timeclock.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[timeclock.NormalizeEmail(email)]
	if !ok {
		return nil, timeclock.ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) UsersByTag(_ context.Context, tag timeclock.Tag) ([]timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []timeclock.User{}
	for _, u := range m.users {
		if u.Tag == tag {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *Memory) UsersByDivision(_ context.Context, division string) ([]timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []timeclock.User{}
	for _, u := range m.users {
		if u.Division == division {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *Memory) UsersSupervisedBy(_ context.Context, supervisorID timeclock.UserID) ([]timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []timeclock.User{}
	for _, u := range m.users {
		if u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *Memory) ClockedInUsers(_ context.Context) ([]timeclock.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []timeclock.User{}
	for _, u := range m.users {
		if u.ClockedIn {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *Memory) SetClockedIn(_ context.Context, id timeclock.UserID, clockedIn bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return timeclock.ErrNotFound
	}
	u.ClockedIn = clockedIn
	m.users[id] = u
	return nil
}

// =============================================================================
// VACATION STORE
// =============================================================================

func (m *Memory) SaveVacation(_ context.Context, v timeclock.VacationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vacations[v.ID] = v
	return nil
}

func (m *Memory) VacationByID(_ context.Context, id timeclock.VacationID) (*timeclock.VacationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vacations[id]
	if !ok {
		return nil, timeclock.ErrNotFound
	}
	return &v, nil
}

func (m *Memory) PendingVacations(_ context.Context, userIDs []timeclock.UserID) ([]timeclock.VacationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	allowed := make(map[timeclock.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = true
	}
	result := []timeclock.VacationRequest{}
	for _, v := range m.vacations {
		if v.Pending && allowed[v.UserID] {
			result = append(result, v)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) UpdateVacationApproval(_ context.Context, id timeclock.VacationID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vacations[id]
	if !ok {
		return timeclock.ErrNotFound
	}
	v.Approved = approved
	v.Pending = false
	m.vacations[id] = v
	return nil
}

// =============================================================================
// CHANGE LOG STORE
// =============================================================================

func (m *Memory) AppendChange(_ context.Context, entry timeclock.ChangeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[entry.UserID] = append(m.changes[entry.UserID], entry)
	return nil
}

func (m *Memory) ChangesForUser(_ context.Context, userID timeclock.UserID) ([]timeclock.ChangeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]timeclock.ChangeEntry, len(m.changes[userID]))
	copy(entries, m.changes[userID])
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}
