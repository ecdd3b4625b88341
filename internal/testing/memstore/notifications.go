package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"internship-service/internal/identity"
	"internship-service/internal/notification"
)

type receipt struct {
	notificationID int
	userID         int
}

type Notifications struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]notification.Notification
	reads  map[receipt]bool
	Err    error
	// Writes counts MarkRead calls that reached the store.
	Writes int
}

func NewNotifications() *Notifications {
	return &Notifications{
		nextID: 1,
		byID:   make(map[int]notification.Notification),
		reads:  make(map[receipt]bool),
	}
}

func (r *Notifications) Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	n.Normalize()
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.byID[n.ID] = *n
	return n, nil
}

func (r *Notifications) resolve(n notification.Notification, viewer identity.Principal) notification.Notification {
	if n.IsBroadcast() {
		n.IsRead = r.reads[receipt{n.ID, viewer.UserID}]
	}
	return n
}

func (r *Notifications) GetFor(ctx context.Context, id int, viewer identity.Principal) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	n, ok := r.byID[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	n = r.resolve(n, viewer)
	return &n, nil
}

func (r *Notifications) visible(viewer identity.Principal, unreadOnly bool) []notification.Notification {
	var out []notification.Notification
	for _, n := range r.byID {
		if !n.VisibleTo(viewer) {
			continue
		}
		n = r.resolve(n, viewer)
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out
}

func (r *Notifications) List(ctx context.Context, viewer identity.Principal, filter notification.ListFilter) ([]notification.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	all := r.visible(viewer, filter.UnreadOnly)
	return paginate(all, filter.Page, filter.Limit), len(all), nil
}

func (r *Notifications) CountUnread(ctx context.Context, viewer identity.Principal) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return len(r.visible(viewer, true)), nil
}

func (r *Notifications) MarkRead(ctx context.Context, n *notification.Notification, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	r.Writes++
	if n.IsBroadcast() {
		r.reads[receipt{n.ID, userID}] = true
		return nil
	}
	stored := r.byID[n.ID]
	stored.IsRead = true
	r.byID[n.ID] = stored
	return nil
}

func (r *Notifications) MarkAllRead(ctx context.Context, viewer identity.Principal) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	marked := 0
	for _, n := range r.visible(viewer, true) {
		if n.IsBroadcast() {
			r.reads[receipt{n.ID, viewer.UserID}] = true
		} else {
			n.IsRead = true
			r.byID[n.ID] = n
		}
		marked++
	}
	return marked, nil
}
