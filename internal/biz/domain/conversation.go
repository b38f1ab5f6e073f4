package domain

// ConversationSummary represents one entry of the chat list as scraped from the page.
// Name is the only identity it has; two contacts sharing a display name collide.
type ConversationSummary struct {
	Name      string `json:"name"`
	Preview   string `json:"preview"`
	HasUnread bool   `json:"hasUnread"`
	IsNewChat bool   `json:"isNewChat"`
	IsNewSnap bool   `json:"isNewSnap"`
}

// ListItemSnapshot is the raw data the page reports for one chat-list candidate node
type ListItemSnapshot struct {
	Text       string `json:"text"`
	ClassNames string `json:"classNames"` // class names of the node and its descendants, space separated
	FontWeight int    `json:"fontWeight"`
}

// UnreadOnly returns the conversations flagged as unread, preserving scan order
func UnreadOnly(convs []ConversationSummary) []ConversationSummary {
	var result []ConversationSummary
	for _, c := range convs {
		if c.HasUnread {
			result = append(result, c)
		}
	}
	return result
}
