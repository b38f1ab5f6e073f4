package domain

// MaxMessages is how many recent messages a conversation scan keeps
const MaxMessages = 10

// Message represents a message entity read from an open conversation
type Message struct {
	Text   string `json:"text"`
	IsSent bool   `json:"isSent"` // sent by the automated account
}

// MessageNodeSnapshot is the raw data the page reports for one message candidate node
type MessageNodeSnapshot struct {
	Text            string  `json:"text"`
	ClassName       string  `json:"className"`
	ParentClassName string  `json:"parentClassName"`
	Top             float64 `json:"top"`
	ParentLeft      float64 `json:"parentLeft"`
	RegionLeft      float64 `json:"regionLeft"`
	RegionWidth     float64 `json:"regionWidth"`
}

// LastReceived finds the last message from the counterpart.
// The returned index is -1 when the counterpart has said nothing.
func LastReceived(msgs []Message) (Message, int) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsSent {
			return msgs[i], i
		}
	}
	return Message{}, -1
}

// ProcessedKey builds the dedup key for an inbound message in a named conversation
func ProcessedKey(conversation, text string) string {
	return conversation + ":" + text
}

// DedupSet remembers which inbound messages were already answered.
// It is unbounded and lives only as long as the worker.
type DedupSet struct {
	seen map[string]struct{}
}

// NewDedupSet creates an empty dedup set
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Has checks if the key was recorded
func (d *DedupSet) Has(key string) bool {
	_, ok := d.seen[key]
	return ok
}

// Add records a key
func (d *DedupSet) Add(key string) {
	d.seen[key] = struct{}{}
}

// Len returns the number of recorded keys
func (d *DedupSet) Len() int {
	return len(d.seen)
}
