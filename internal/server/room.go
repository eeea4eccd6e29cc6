package server

import "github.com/Manish-keer19/meeting-app/internal/signaling"

// Room is one meeting room: the admitted members in join order, the host who
// resolves join requests, and the requesters still waiting.
type Room struct {
	ID string

	// Host is the admission authority: the first arrival, or the oldest
	// member after the original host leaves.
	Host *Client

	// Members are admitted participants in join order.
	Members []*Client

	// Pending maps requester id to the waiting client.
	Pending map[string]*Client
}

func newRoom(id string, host *Client) *Room {
	return &Room{
		ID:      id,
		Host:    host,
		Members: []*Client{host},
		Pending: make(map[string]*Client),
	}
}

// memberByID returns the admitted member with the given id, or nil.
func (r *Room) memberByID(id string) *Client {
	for _, m := range r.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// isMember reports whether c has been admitted.
func (r *Room) isMember(c *Client) bool {
	return r.memberByID(c.ID) != nil
}

// removeMember drops c from the member list, reporting whether it was there.
func (r *Room) removeMember(c *Client) bool {
	for i, m := range r.Members {
		if m == c {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// roster lists the members except exclude, for the existing-users snapshot.
func (r *Room) roster(exclude *Client) []signaling.UserInfo {
	users := make([]signaling.UserInfo, 0, len(r.Members))
	for _, m := range r.Members {
		if m == exclude {
			continue
		}
		users = append(users, signaling.UserInfo{UserID: m.ID, UserName: m.Name})
	}
	return users
}
