/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

// Sessions maps players to their live connection. It is owned by a single
// actor goroutine and is not safe for concurrent use.
type Sessions struct {
	byPlayer map[string]Conn
	byConn   map[Conn]string
}

func NewSessions() *Sessions {
	return &Sessions{
		byPlayer: make(map[string]Conn),
		byConn:   make(map[Conn]string),
	}
}

// Register binds c to playerID. It returns the connection previously bound
// to that player, if any and if different from c; the caller closes it.
func (s *Sessions) Register(playerID string, c Conn) Conn {
	if prev, ok := s.byConn[c]; ok && prev != playerID {
		delete(s.byPlayer, prev)
	}

	old, ok := s.byPlayer[playerID]
	if ok && old != c {
		delete(s.byConn, old)
	} else {
		old = nil
	}

	s.byPlayer[playerID] = c
	s.byConn[c] = playerID

	return old
}

// Unregister drops c. ok is false if c was not bound, which is also the
// case for a connection that has been replaced by a reconnect.
func (s *Sessions) Unregister(c Conn) (playerID string, ok bool) {
	playerID, ok = s.byConn[c]
	if !ok {
		return "", false
	}

	delete(s.byConn, c)
	delete(s.byPlayer, playerID)

	return playerID, true
}

// PlayerID returns the player c is bound to.
func (s *Sessions) PlayerID(c Conn) (string, bool) {
	id, ok := s.byConn[c]
	return id, ok
}

// Conn returns the connection bound to playerID.
func (s *Sessions) Conn(playerID string) (Conn, bool) {
	c, ok := s.byPlayer[playerID]
	return c, ok
}

// Broadcast sends data to every bound connection except the one belonging
// to exclude. Connections whose send fails are closed and dropped, and
// their player ids returned.
func (s *Sessions) Broadcast(data []byte, exclude string) []string {
	var evicted []string

	for id, c := range s.byPlayer {
		if id == exclude {
			continue
		}
		if err := c.Send(data); err != nil {
			delete(s.byPlayer, id)
			delete(s.byConn, c)
			c.Close()
			evicted = append(evicted, id)
		}
	}

	return evicted
}

func (s *Sessions) Len() int {
	return len(s.byPlayer)
}

// CloseAll closes and drops every connection.
func (s *Sessions) CloseAll() {
	for c := range s.byConn {
		c.Close()
	}
	s.byPlayer = make(map[string]Conn)
	s.byConn = make(map[Conn]string)
}
