package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/repository"
)

// memState is the in-memory database behind memStore. Rows are stored by value so a
// shallow copy of the maps is a consistent snapshot.
type memState struct {
	nextID       int32
	users        map[int32]domain.User
	userOrgs     map[[2]int32]domain.UserOrg
	orgs         map[int32]domain.Organization
	events       map[int32]domain.Event
	intents      map[int32]domain.SponsorshipIntent
	history      []domain.ChangeHistoryEntry
	sponsors     map[int32]domain.Sponsor
	sponsorships map[int32]domain.Sponsorship
	receipts     map[int32]domain.Receipt
	sequences    map[string]int32
	notes        map[int32]domain.Notification
}

func newMemState() *memState {
	return &memState{
		nextID:       100,
		users:        map[int32]domain.User{},
		userOrgs:     map[[2]int32]domain.UserOrg{},
		orgs:         map[int32]domain.Organization{},
		events:       map[int32]domain.Event{},
		intents:      map[int32]domain.SponsorshipIntent{},
		sponsors:     map[int32]domain.Sponsor{},
		sponsorships: map[int32]domain.Sponsorship{},
		receipts:     map[int32]domain.Receipt{},
		sequences:    map[string]int32{},
		notes:        map[int32]domain.Notification{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:       s.nextID,
		users:        cloneMap(s.users),
		userOrgs:     cloneMap(s.userOrgs),
		orgs:         cloneMap(s.orgs),
		events:       cloneMap(s.events),
		intents:      cloneMap(s.intents),
		history:      append([]domain.ChangeHistoryEntry(nil), s.history...),
		sponsors:     cloneMap(s.sponsors),
		sponsorships: cloneMap(s.sponsorships),
		receipts:     cloneMap(s.receipts),
		sequences:    cloneMap(s.sequences),
		notes:        cloneMap(s.notes),
	}
}

// memStore implements every repository plus TxManager. WithinTx snapshots the state
// and restores it when fn fails.
type memStore struct {
	mu    sync.Mutex
	st    *memState
	fail  map[string]error
	repos *repository.Repos
	// beforeClaim runs inside UpdateIfUnpaid on the stored intent, standing in for
	// a verification that commits first
	beforeClaim func(stored *domain.SponsorshipIntent)
}

func newMemStore() *memStore {
	m := &memStore{st: newMemState(), fail: map[string]error{}}
	m.repos = &repository.Repos{
		Users:         memUsers{m},
		Orgs:          memOrgs{m},
		Events:        memEvents{m},
		Intents:       memIntents{m},
		History:       memHistory{m},
		Sponsorships:  memSponsorships{m},
		Sponsors:      memSponsors{m},
		Receipts:      memReceipts{m},
		Notifications: memNotes{m},
	}
	return m
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repos) error) error {
	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(ctx, m.repos); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// failOn makes the named repository operation return err
func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func (m *memStore) id() int32 {
	m.st.nextID++
	return m.st.nextID
}

func missing(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, domain.ErrNotFound)
}

// test accessors

func (m *memStore) intent(id int32) domain.SponsorshipIntent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.intents[id]
}

func (m *memStore) org(id int32) domain.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orgs[id]
}

func (m *memStore) event(id int32) domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.events[id]
}

func (m *memStore) sponsorshipCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.sponsorships)
}

func (m *memStore) historyOf(intentID int32) []domain.ChangeHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChangeHistoryEntry
	for _, e := range m.st.history {
		if e.IntentID == intentID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) receiptsOf(sponsorshipID int32) []domain.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Receipt
	for _, r := range m.st.receipts {
		if r.SponsorshipID == sponsorshipID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) dropSponsorship(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.st.sponsorships, id)
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Users.Create"]; err != nil {
		return err
	}
	u.ID = r.m.id()
	r.m.st.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.st.users[id]
	if !ok {
		return nil, missing("user", id)
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, missing("user", email)
}

func (r memUsers) Update(ctx context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.users[u.ID]; !ok {
		return missing("user", u.ID)
	}
	r.m.st.users[u.ID] = *u
	return nil
}

func (r memUsers) GetUserOrg(ctx context.Context, userID, orgID int32) (*domain.UserOrg, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	uo, ok := r.m.st.userOrgs[[2]int32{userID, orgID}]
	if !ok {
		return nil, missing("membership", userID)
	}
	return &uo, nil
}

func (r memUsers) ListAdminIDsByOrg(ctx context.Context, orgID int32) ([]int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []int32
	if org, ok := r.m.st.orgs[orgID]; ok {
		ids = append(ids, org.CreatedBy)
	}
	for k, uo := range r.m.st.userOrgs {
		if k[1] == orgID && uo.Role.IsAdmin() {
			ids = append(ids, uo.UserID)
		}
	}
	return ids, nil
}

type memOrgs struct{ m *memStore }

func (r memOrgs) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.st.orgs[id]
	if !ok {
		return nil, missing("organization", id)
	}
	return &o, nil
}

func (r memOrgs) AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Orgs.AdjustRollup"]; err != nil {
		return err
	}
	o, ok := r.m.st.orgs[id]
	if !ok {
		return missing("organization", id)
	}
	o.SponsorshipCount = max(o.SponsorshipCount+countDelta, 0)
	o.SponsorshipTotal = max(o.SponsorshipTotal+totalDelta, 0)
	r.m.st.orgs[id] = o
	return nil
}

type memEvents struct{ m *memStore }

func (r memEvents) GetByID(ctx context.Context, id int32) (*domain.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.st.events[id]
	if !ok {
		return nil, missing("event", id)
	}
	return &e, nil
}

func (r memEvents) AdjustRollup(ctx context.Context, id int32, countDelta int32, totalDelta float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.st.events[id]
	if !ok {
		return missing("event", id)
	}
	e.SponsorshipCount = max(e.SponsorshipCount+countDelta, 0)
	e.SponsorshipTotal = max(e.SponsorshipTotal+totalDelta, 0)
	r.m.st.events[id] = e
	return nil
}

type memIntents struct{ m *memStore }

func (r memIntents) Create(ctx context.Context, i *domain.SponsorshipIntent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i.ID = r.m.id()
	i.CreatedAt = time.Now().UTC()
	i.UpdatedAt = i.CreatedAt
	r.m.st.intents[i.ID] = *i
	return nil
}

func (r memIntents) GetByID(ctx context.Context, id int32) (*domain.SponsorshipIntent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.st.intents[id]
	if !ok {
		return nil, missing("intent", id)
	}
	return &i, nil
}

func (r memIntents) Update(ctx context.Context, i *domain.SponsorshipIntent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Intents.Update"]; err != nil {
		return err
	}
	if _, ok := r.m.st.intents[i.ID]; !ok {
		return missing("intent", i.ID)
	}
	i.UpdatedAt = time.Now().UTC()
	r.m.st.intents[i.ID] = *i
	return nil
}

func (r memIntents) UpdateIfUnpaid(ctx context.Context, i *domain.SponsorshipIntent) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.st.intents[i.ID]
	if !ok {
		return false, missing("intent", i.ID)
	}
	if r.m.beforeClaim != nil {
		r.m.beforeClaim(&cur)
		r.m.st.intents[i.ID] = cur
	}
	if cur.Payment.Status == domain.PaymentStatusCompleted {
		return false, nil
	}
	i.UpdatedAt = time.Now().UTC()
	r.m.st.intents[i.ID] = *i
	return true, nil
}

func (r memIntents) Delete(ctx context.Context, id int32) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.intents[id]; !ok {
		return missing("intent", id)
	}
	delete(r.m.st.intents, id)
	return nil
}

func (r memIntents) filter(keep func(domain.SponsorshipIntent) bool) []domain.SponsorshipIntent {
	var out []domain.SponsorshipIntent
	for _, i := range r.m.st.intents {
		if keep(i) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (r memIntents) ListBySponsorUser(ctx context.Context, userID int32) ([]domain.SponsorshipIntent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.filter(func(i domain.SponsorshipIntent) bool { return i.IsOwnedBy(userID) }), nil
}

func (r memIntents) ListByOrg(ctx context.Context, orgID int32, status domain.IntentStatus) ([]domain.SponsorshipIntent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.filter(func(i domain.SponsorshipIntent) bool {
		return i.OrgID == orgID && (status == "" || i.Status == status)
	}), nil
}

func (r memIntents) ListOrphaned(ctx context.Context) ([]domain.SponsorshipIntent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.filter(func(i domain.SponsorshipIntent) bool {
		if i.ConvertedTo == nil {
			return false
		}
		_, ok := r.m.st.sponsorships[*i.ConvertedTo]
		return !ok
	}), nil
}

type memHistory struct{ m *memStore }

func (r memHistory) Append(ctx context.Context, e *domain.ChangeHistoryEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e.ID = r.m.id()
	r.m.st.history = append(r.m.st.history, *e)
	return nil
}

func (r memHistory) ListByIntent(ctx context.Context, intentID int32) ([]domain.ChangeHistoryEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.ChangeHistoryEntry
	for _, e := range r.m.st.history {
		if e.IntentID == intentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSponsorships struct{ m *memStore }

func (r memSponsorships) Create(ctx context.Context, s *domain.Sponsorship) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Sponsorships.Create"]; err != nil {
		return err
	}
	if s.IntentID != nil {
		for _, existing := range r.m.st.sponsorships {
			if existing.IntentID != nil && *existing.IntentID == *s.IntentID {
				return fmt.Errorf("sponsorship for intent already exists: %w", domain.ErrAlreadyConverted)
			}
		}
	}
	s.ID = r.m.id()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	r.m.st.sponsorships[s.ID] = *s
	return nil
}

func (r memSponsorships) GetByID(ctx context.Context, id int32) (*domain.Sponsorship, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.st.sponsorships[id]
	if !ok {
		return nil, missing("sponsorship", id)
	}
	return &s, nil
}

func (r memSponsorships) GetByIntentID(ctx context.Context, intentID int32) (*domain.Sponsorship, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.st.sponsorships {
		if s.IntentID != nil && *s.IntentID == intentID {
			return &s, nil
		}
	}
	return nil, missing("sponsorship for intent", intentID)
}

func (r memSponsorships) Update(ctx context.Context, s *domain.Sponsorship) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.sponsorships[s.ID]; !ok {
		return missing("sponsorship", s.ID)
	}
	s.UpdatedAt = time.Now().UTC()
	r.m.st.sponsorships[s.ID] = *s
	return nil
}

func (r memSponsorships) Delete(ctx context.Context, id int32) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.sponsorships[id]; !ok {
		return missing("sponsorship", id)
	}
	delete(r.m.st.sponsorships, id)
	return nil
}

func (r memSponsorships) filter(keep func(domain.Sponsorship) bool) []domain.Sponsorship {
	var out []domain.Sponsorship
	for _, s := range r.m.st.sponsorships {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (r memSponsorships) ListBySponsor(ctx context.Context, sponsorID int32) ([]domain.Sponsorship, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Sponsorships.ListBySponsor"]; err != nil {
		return nil, err
	}
	return r.filter(func(s domain.Sponsorship) bool { return s.SponsorID == sponsorID }), nil
}

func (r memSponsorships) ListByOrg(ctx context.Context, orgID int32) ([]domain.Sponsorship, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.filter(func(s domain.Sponsorship) bool { return s.OrgID == orgID }), nil
}

func (r memSponsorships) Reassign(ctx context.Context, fromSponsorID, toSponsorID int32) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, s := range r.m.st.sponsorships {
		if s.SponsorID == fromSponsorID {
			s.SponsorID = toSponsorID
			r.m.st.sponsorships[id] = s
			n++
		}
	}
	return n, nil
}

type memSponsors struct{ m *memStore }

func (r memSponsors) Create(ctx context.Context, s *domain.Sponsor) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.st.sponsors {
		if existing.UserID == s.UserID {
			return fmt.Errorf("sponsor profile for user %d already exists", s.UserID)
		}
	}
	s.ID = r.m.id()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	r.m.st.sponsors[s.ID] = *s
	return nil
}

func (r memSponsors) GetByID(ctx context.Context, id int32) (*domain.Sponsor, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.st.sponsors[id]
	if !ok {
		return nil, missing("sponsor", id)
	}
	return &s, nil
}

func (r memSponsors) GetByUserID(ctx context.Context, userID int32) (*domain.Sponsor, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.st.sponsors {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, missing("sponsor for user", userID)
}

func (r memSponsors) Update(ctx context.Context, s *domain.Sponsor) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.sponsors[s.ID]; !ok {
		return missing("sponsor", s.ID)
	}
	r.m.st.sponsors[s.ID] = *s
	return nil
}

func (r memSponsors) UpdateStats(ctx context.Context, id int32, stats domain.SponsorStats) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Sponsors.UpdateStats"]; err != nil {
		return err
	}
	s, ok := r.m.st.sponsors[id]
	if !ok {
		return missing("sponsor", id)
	}
	s.Stats = stats
	r.m.st.sponsors[id] = s
	return nil
}

func (r memSponsors) Delete(ctx context.Context, id int32) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.sponsors[id]; !ok {
		return missing("sponsor", id)
	}
	delete(r.m.st.sponsors, id)
	return nil
}

func (r memSponsors) ListIDs(ctx context.Context) ([]int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []int32
	for id := range r.m.st.sponsors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids, nil
}

func (r memSponsors) ListDuplicateGroups(ctx context.Context) ([][]domain.Sponsor, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	byEmail := map[string][]domain.Sponsor{}
	for _, s := range r.m.st.sponsors {
		key := strings.ToLower(s.Email)
		byEmail[key] = append(byEmail[key], s)
	}
	var emails []string
	for email, group := range byEmail {
		if len(group) > 1 {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)

	var groups [][]domain.Sponsor
	for _, email := range emails {
		group := byEmail[email]
		sort.Slice(group, func(a, b int) bool {
			if !group[a].CreatedAt.Equal(group[b].CreatedAt) {
				return group[a].CreatedAt.After(group[b].CreatedAt)
			}
			return group[a].ID > group[b].ID
		})
		groups = append(groups, group)
	}
	return groups, nil
}

type memReceipts struct{ m *memStore }

func (r memReceipts) NextSequence(ctx context.Context, period string) (int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.st.sequences[period]++
	return r.m.st.sequences[period], nil
}

func (r memReceipts) Create(ctx context.Context, rc *domain.Receipt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail["Receipts.Create"]; err != nil {
		return err
	}
	rc.ID = r.m.id()
	r.m.st.receipts[rc.ID] = *rc
	return nil
}

func (r memReceipts) GetLatestBySponsorship(ctx context.Context, sponsorshipID int32) (*domain.Receipt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *domain.Receipt
	for _, rc := range r.m.st.receipts {
		if rc.SponsorshipID == sponsorshipID && (latest == nil || rc.ID > latest.ID) {
			c := rc
			latest = &c
		}
	}
	if latest == nil {
		return nil, missing("receipt for sponsorship", sponsorshipID)
	}
	return latest, nil
}

func (r memReceipts) ListBySponsorship(ctx context.Context, sponsorshipID int32) ([]domain.Receipt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Receipt
	for _, rc := range r.m.st.receipts {
		if rc.SponsorshipID == sponsorshipID {
			out = append(out, rc)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

type memNotes struct{ m *memStore }

func (r memNotes) Create(ctx context.Context, n *domain.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = r.m.id()
	r.m.st.notes[n.ID] = *n
	return nil
}

func (r memNotes) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []domain.Notification
	for _, n := range r.m.st.notes {
		if n.UserID == userID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].ID > all[b].ID })
	total := int32(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r memNotes) MarkAsRead(ctx context.Context, id, userID int32) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.st.notes[id]
	if !ok || n.UserID != userID {
		return missing("notification", id)
	}
	n.IsRead = true
	r.m.st.notes[id] = n
	return nil
}
