package model

// Channel is a chat channel games are played in
type Channel struct {
	ID       string
	Platform Platform
	Name     string
}

// ChannelKey identifies a channel independent of its display name
type ChannelKey struct {
	Platform Platform
	ID       string
}

// Key returns the identity of the channel
func (c Channel) Key() ChannelKey {
	return ChannelKey{Platform: c.Platform, ID: c.ID}
}

// Equal compares channels by platform and id only
func (c Channel) Equal(other Channel) bool {
	return c.Key() == other.Key()
}

// String renders the key as "platform:id"
func (k ChannelKey) String() string {
	return string(k.Platform) + ":" + k.ID
}

// ChannelLink joins two channels into a single audience for status and interest queries
type ChannelLink struct {
	A Channel
	B Channel
}

// Other returns the channel linked to c, and false if c is not part of the link
func (l ChannelLink) Other(c Channel) (Channel, bool) {
	switch {
	case l.A.Equal(c):
		return l.B, true
	case l.B.Equal(c):
		return l.A, true
	default:
		return Channel{}, false
	}
}

// Interest means a player wants to be included in new games started in a channel
type Interest struct {
	PlayerID PlayerID
	Channel  Channel
}
